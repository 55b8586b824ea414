package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cinelog/go-review-backend/internal/auth"
	"github.com/cinelog/go-review-backend/internal/config"
	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/repo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type capturedCode struct {
	code string
}

func (c *capturedCode) SendCode(ctx context.Context, userID int64, code string) error {
	c.code = code
	return nil
}

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	tm     auth.TokenManager
	sender *capturedCode
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec("PRAGMA foreign_keys=ON;").Error; err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tm, err := auth.NewTokenManager("test-secret-key-0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	cfg := config.Config{
		APIBasePath:     "/api/v1",
		MaxBodyBytes:    1 << 20,
		RateRPS:         1000,
		RateBurst:       1000,
		RateTTL:         time.Minute,
		ConfirmationTTL: time.Minute,
	}

	sender := &capturedCode{}
	r := gin.New()
	RegisterRoutes(r, db, tm, sender, cfg)
	return &testServer{engine: r, db: db, tm: tm, sender: sender}
}

func (s *testServer) token(t *testing.T, email, role string) string {
	t.Helper()
	u := &domain.User{DisplayName: "user", Email: email}
	if err := s.db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	tok, err := s.tm.Generate(u.ID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealthAndFallbacks(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}

	w := s.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown route: %d", w.Code)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["code"] != "not_found" {
		t.Fatalf("error envelope: %v", body)
	}

	if w := s.do(t, http.MethodPatch, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("method not allowed: %d", w.Code)
	}
}

func TestMovieAdministration(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin@example.com", auth.RoleAdmin)
	user := s.token(t, "user@example.com", auth.RoleUser)

	payload := map[string]any{"title": "Blade Runner", "release_year": 1982, "duration": 117}

	// Anonymous and non-admin writes are rejected.
	if w := s.do(t, http.MethodPost, "/api/v1/movies", "", payload); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/v1/movies", user, payload); w.Code != http.StatusForbidden {
		t.Fatalf("user create: %d", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/v1/movies", admin, payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("admin create: %d %s", w.Code, w.Body.String())
	}
	var m domain.Movie
	decode(t, w, &m)
	if m.ID == 0 || m.Title != "Blade Runner" {
		t.Fatalf("created movie: %+v", m)
	}

	// Duplicate title conflicts.
	if w := s.do(t, http.MethodPost, "/api/v1/movies", admin, payload); w.Code != http.StatusConflict {
		t.Fatalf("duplicate create: %d", w.Code)
	}

	// Malformed payload.
	if w := s.do(t, http.MethodPost, "/api/v1/movies", admin, map[string]any{"title": ""}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad payload: %d", w.Code)
	}

	// Public read.
	if w := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/movies/%d", m.ID), "", nil); w.Code != http.StatusOK {
		t.Fatalf("get movie: %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/movies/999", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing movie: %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/movies/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", w.Code)
	}

	// Delete.
	if w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/movies/%d", m.ID), admin, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
}

func TestReviewAndReactionFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin@example.com", auth.RoleAdmin)
	alice := s.token(t, "alice@example.com", auth.RoleUser)
	bob := s.token(t, "bob@example.com", auth.RoleUser)

	w := s.do(t, http.MethodPost, "/api/v1/movies", admin,
		map[string]any{"title": "Arrival", "release_year": 2016, "duration": 116})
	if w.Code != http.StatusCreated {
		t.Fatalf("create movie: %d", w.Code)
	}
	var m domain.Movie
	decode(t, w, &m)
	moviePath := fmt.Sprintf("/api/v1/movies/%d", m.ID)

	// Off-grid rating is rejected by the halfstep binding rule.
	if w := s.do(t, http.MethodPost, moviePath+"/reviews", alice,
		map[string]any{"rating": 7.7, "message": "odd"}); w.Code != http.StatusBadRequest {
		t.Fatalf("off-grid rating: %d", w.Code)
	}

	w = s.do(t, http.MethodPost, moviePath+"/reviews", alice,
		map[string]any{"rating": 8, "message": "linguistics and grief"})
	if w.Code != http.StatusCreated {
		t.Fatalf("alice review: %d %s", w.Code, w.Body.String())
	}
	var review domain.Review
	decode(t, w, &review)

	// Second review conflicts.
	if w := s.do(t, http.MethodPost, moviePath+"/reviews", alice,
		map[string]any{"rating": 9, "message": "again"}); w.Code != http.StatusConflict {
		t.Fatalf("second review: %d", w.Code)
	}

	// Bob rates 5; the movie detail shows the running average 6.5/2.
	if w := s.do(t, http.MethodPost, moviePath+"/reviews", bob,
		map[string]any{"rating": 5, "message": "cold"}); w.Code != http.StatusCreated {
		t.Fatalf("bob review: %d", w.Code)
	}
	w = s.do(t, http.MethodGet, moviePath, "", nil)
	var detail struct {
		Rating       float64 `json:"rating"`
		TotalReviews int     `json:"total_reviews"`
	}
	decode(t, w, &detail)
	if detail.Rating != 6.5 || detail.TotalReviews != 2 {
		t.Fatalf("aggregate = (%v, %d), want (6.5, 2)", detail.Rating, detail.TotalReviews)
	}

	// Bob likes Alice's review, then flips to dislike.
	reactPath := fmt.Sprintf("/api/v1/reviews/%d/reactions", review.ID)
	w = s.do(t, http.MethodPut, reactPath, bob, map[string]any{"polarity": "like", "active": false})
	if w.Code != http.StatusOK {
		t.Fatalf("like: %d %s", w.Code, w.Body.String())
	}
	var counters struct {
		Likes    int `json:"total_likes"`
		Dislikes int `json:"total_dislikes"`
	}
	decode(t, w, &counters)
	if counters.Likes != 1 || counters.Dislikes != 0 {
		t.Fatalf("after like: %+v", counters)
	}

	w = s.do(t, http.MethodPut, reactPath, bob, map[string]any{"polarity": "dislike", "active": false})
	decode(t, w, &counters)
	if counters.Likes != 0 || counters.Dislikes != 1 {
		t.Fatalf("after flip: %+v", counters)
	}

	// Removing a reaction never held is a 404.
	if w := s.do(t, http.MethodPut, reactPath, alice,
		map[string]any{"polarity": "like", "active": true}); w.Code != http.StatusNotFound {
		t.Fatalf("remove absent: %d", w.Code)
	}

	// Bob comments on Alice's review.
	commentPath := fmt.Sprintf("/api/v1/reviews/%d/comments", review.ID)
	w = s.do(t, http.MethodPost, commentPath, bob, map[string]any{"message": "well put"})
	if w.Code != http.StatusCreated {
		t.Fatalf("comment: %d", w.Code)
	}

	// Alice's feed view pins her own review first and carries annotations.
	w = s.do(t, http.MethodGet, moviePath+"/reviews", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("feed: %d", w.Code)
	}
	var feed struct {
		Reviews []struct {
			ID          int64 `json:"id"`
			IsMine      bool  `json:"is_mine"`
			IsCommented bool  `json:"is_commented"`
		} `json:"reviews"`
		NextCursor string `json:"next_cursor"`
	}
	decode(t, w, &feed)
	if len(feed.Reviews) != 2 {
		t.Fatalf("feed rows = %d", len(feed.Reviews))
	}
	if feed.Reviews[0].ID != review.ID || !feed.Reviews[0].IsMine {
		t.Fatalf("own review not pinned: %+v", feed.Reviews)
	}
	if feed.NextCursor != "" {
		t.Fatalf("short feed must not page")
	}

	// Invalid cursor is a 400 with the dedicated code.
	w = s.do(t, http.MethodGet, moviePath+"/reviews?cursor=!!!", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad cursor: %d", w.Code)
	}
	var errBody map[string]any
	decode(t, w, &errBody)
	if errBody["code"] != "invalid_cursor" {
		t.Fatalf("bad cursor code: %v", errBody)
	}

	// Ownership: Bob cannot delete Alice's review.
	reviewPath := fmt.Sprintf("/api/v1/reviews/%d", review.ID)
	if w := s.do(t, http.MethodDelete, reviewPath, bob, nil); w.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, reviewPath, alice, nil); w.Code != http.StatusNoContent {
		t.Fatalf("own delete: %d", w.Code)
	}
}

func TestConfirmationFlow(t *testing.T) {
	s := newTestServer(t)
	user := s.token(t, "user@example.com", auth.RoleUser)

	w := s.do(t, http.MethodPost, "/api/v1/confirmations", user, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var sess struct {
		ID        int64 `json:"id"`
		TimeValid int64 `json:"time_valid"`
	}
	decode(t, w, &sess)
	if sess.ID == 0 || s.sender.code == "" {
		t.Fatalf("session or code missing: %+v %q", sess, s.sender.code)
	}

	// Wrong code.
	w = s.do(t, http.MethodPost, "/api/v1/confirmations/validate", user,
		map[string]any{"session_id": sess.ID, "code": "WRONG1"})
	if s.sender.code == "WRONG1" {
		t.Skip("generated code collided with the test constant")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong code: %d", w.Code)
	}

	// Right code.
	w = s.do(t, http.MethodPost, "/api/v1/confirmations/validate", user,
		map[string]any{"session_id": sess.ID, "code": s.sender.code})
	if w.Code != http.StatusOK {
		t.Fatalf("validate: %d %s", w.Code, w.Body.String())
	}
}

func TestPersonalListFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin@example.com", auth.RoleAdmin)
	user := s.token(t, "user@example.com", auth.RoleUser)

	w := s.do(t, http.MethodPost, "/api/v1/movies", admin, map[string]any{
		"title": "Seven Samurai", "release_year": 1954, "duration": 207,
		"genres": []string{"Drama", "Action"}, "countries": []string{"Japan"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create movie: %d %s", w.Code, w.Body.String())
	}
	var m domain.Movie
	decode(t, w, &m)
	if len(m.Genres) != 2 || len(m.Countries) != 1 {
		t.Fatalf("tags = %v / %v", m.Genres, m.Countries)
	}

	watchedPath := fmt.Sprintf("/api/v1/movies/%d/watched", m.ID)

	if w := s.do(t, http.MethodPut, watchedPath, "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous add: %d", w.Code)
	}
	if w := s.do(t, http.MethodPut, watchedPath, user, nil); w.Code != http.StatusNoContent {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	// Idempotent re-add.
	if w := s.do(t, http.MethodPut, watchedPath, user, nil); w.Code != http.StatusNoContent {
		t.Fatalf("repeat add: %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/users/me/watched", user, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var page struct {
		Movies []domain.Movie `json:"movies"`
	}
	decode(t, w, &page)
	if len(page.Movies) != 1 || page.Movies[0].ID != m.ID || len(page.Movies[0].Genres) != 2 {
		t.Fatalf("watched page = %+v", page.Movies)
	}

	// The wished list is separate.
	w = s.do(t, http.MethodGet, "/api/v1/users/me/wished", user, nil)
	decode(t, w, &page)
	if len(page.Movies) != 0 {
		t.Fatalf("wished page = %+v", page.Movies)
	}

	if w := s.do(t, http.MethodDelete, watchedPath, user, nil); w.Code != http.StatusNoContent {
		t.Fatalf("remove: %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, watchedPath, user, nil); w.Code != http.StatusNotFound {
		t.Fatalf("repeat remove: %d", w.Code)
	}
}
