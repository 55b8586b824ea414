package services

import (
	"context"
	"errors"
	"testing"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/pagination"
	"github.com/cinelog/go-review-backend/internal/repo"
)

func commentFixture(t *testing.T) (*CommentService, *domain.Review, int64, int64) {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	m := seedMovie(t, db, "Parasite")
	author := seedUser(t, db, "author@example.com")
	reader := seedUser(t, db, "reader@example.com")

	reviews := &ReviewService{DB: db}
	r, err := reviews.Create(ctx, author.ID, m.ID, 9, "sharp")
	if err != nil {
		t.Fatalf("seed review: %v", err)
	}
	return &CommentService{DB: db}, r, author.ID, reader.ID
}

func reviewCommentTotal(t *testing.T, svc *CommentService, reviewID int64) int {
	t.Helper()
	r, err := repo.GetReview(context.Background(), svc.DB, reviewID)
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	return r.TotalComments
}

func TestCommentLifecycle_TracksReviewTotal(t *testing.T) {
	svc, r, _, reader := commentFixture(t)
	ctx := context.Background()

	c1, err := svc.Create(ctx, reader, r.ID, "first")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c2, err := svc.Create(ctx, reader, r.ID, "second")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n := reviewCommentTotal(t, svc, r.ID); n != 2 {
		t.Fatalf("total comments = %d, want 2", n)
	}

	edited, err := svc.Update(ctx, reader, c1.ID, "first, edited")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !edited.IsChanged {
		t.Fatalf("edited comment must be flagged as changed")
	}
	if n := reviewCommentTotal(t, svc, r.ID); n != 2 {
		t.Fatalf("edit moved the counter: %d", n)
	}

	if err := svc.Delete(ctx, reader, c2.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := reviewCommentTotal(t, svc, r.ID); n != 1 {
		t.Fatalf("total comments = %d, want 1", n)
	}
}

func TestCommentCreate_Validation(t *testing.T) {
	svc, r, _, reader := commentFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, reader, r.ID, ""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("empty: got %v, want ErrEmptyMessage", err)
	}
	if _, err := svc.Create(ctx, reader, 9999, "orphan"); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("missing review: got %v, want ErrReviewNotFound", err)
	}
}

func TestCommentMutation_OwnershipEnforced(t *testing.T) {
	svc, r, author, reader := commentFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, reader, r.ID, "mine")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, author, c.ID, "stolen"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign update: got %v, want ErrNotOwner", err)
	}
	if err := svc.Delete(ctx, author, c.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign delete: got %v, want ErrNotOwner", err)
	}
	if err := svc.Delete(ctx, reader, 9999); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("missing comment: got %v, want ErrCommentNotFound", err)
	}
	if n := reviewCommentTotal(t, svc, r.ID); n != 1 {
		t.Fatalf("denied attempts moved the counter: %d", n)
	}
}

func TestListForReview_PaginatedAndAnnotated(t *testing.T) {
	svc, r, _, reader := commentFixture(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		c, err := svc.Create(ctx, reader, r.ID, "comment")
		if err != nil {
			t.Fatalf("seed comment %d: %v", i, err)
		}
		ids = append(ids, c.ID)
	}

	reactions := &ReactionService{DB: svc.DB}
	if _, err := reactions.Toggle(ctx, reader, domain.TargetComment, ids[0], domain.PolarityLike, false); err != nil {
		t.Fatalf("like: %v", err)
	}

	seen := map[int64]int{}
	var cur *pagination.Cursor
	for {
		page, err := svc.ListForReview(ctx, r.ID, reader, ListForReviewOptions{Limit: 2, Cursor: cur})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, c := range page.Comments {
			seen[c.ID]++
			if c.ID == ids[0] && !c.IsLiked {
				t.Fatalf("liked comment not annotated")
			}
			if !c.IsMine {
				t.Fatalf("own comment not flagged as mine")
			}
		}
		if page.NextCursor == nil {
			break
		}
		cur = page.NextCursor
	}
	if len(seen) != len(ids) {
		t.Fatalf("feed covered %d of %d comments", len(seen), len(ids))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("comment %d appeared %d times", id, n)
		}
	}

	if _, err := svc.ListForReview(ctx, 9999, reader, ListForReviewOptions{Limit: 2}); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("missing review: got %v, want ErrReviewNotFound", err)
	}
}
