package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/cinelog/go-review-backend/internal/domain"
)

func TestInsertReaction_DuplicateUserTarget(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMovie(t, db, "Blade Runner")
	u := seedUser(t, db, "a@example.com")
	r := seedReview(t, db, u.ID, m.ID, 8)

	if err := InsertReaction(ctx, db, u.ID, domain.TargetReview, r.ID, domain.PolarityLike); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := InsertReaction(ctx, db, u.ID, domain.TargetReview, r.ID, domain.PolarityDislike)
	if !errors.Is(err, ErrDuplicateReaction) {
		t.Fatalf("second insert: got %v, want ErrDuplicateReaction", err)
	}

	// Same user, different target type is a distinct reaction even when the
	// numeric ids collide.
	c := seedComment(t, db, u.ID, r.ID)
	if err := InsertReaction(ctx, db, u.ID, domain.TargetComment, c.ID, domain.PolarityLike); err != nil {
		t.Fatalf("comment insert: %v", err)
	}
}

func TestDeleteReaction_ReturnsPolarity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMovie(t, db, "Alien")
	u := seedUser(t, db, "b@example.com")
	r := seedReview(t, db, u.ID, m.ID, 9)

	if err := InsertReaction(ctx, db, u.ID, domain.TargetReview, r.ID, domain.PolarityDislike); err != nil {
		t.Fatalf("insert: %v", err)
	}
	p, err := DeleteReaction(ctx, db, u.ID, domain.TargetReview, r.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if p != domain.PolarityDislike {
		t.Fatalf("polarity = %q, want dislike", p)
	}
	if _, err := DeleteReaction(ctx, db, u.ID, domain.TargetReview, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestSwitchPolarity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMovie(t, db, "Aliens")
	u := seedUser(t, db, "c@example.com")
	r := seedReview(t, db, u.ID, m.ID, 9)

	if err := InsertReaction(ctx, db, u.ID, domain.TargetReview, r.ID, domain.PolarityLike); err != nil {
		t.Fatalf("insert: %v", err)
	}
	rec, err := GetReaction(ctx, db, u.ID, domain.TargetReview, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := SwitchPolarity(ctx, db, rec.ID, domain.PolarityDislike); err != nil {
		t.Fatalf("switch: %v", err)
	}
	rec, err = GetReaction(ctx, db, u.ID, domain.TargetReview, r.ID)
	if err != nil {
		t.Fatalf("get after switch: %v", err)
	}
	if rec.Polarity != domain.PolarityDislike {
		t.Fatalf("polarity = %q, want dislike", rec.Polarity)
	}
}

func TestReactedTargetIDs_Bulk(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMovie(t, db, "Se7en")
	u := seedUser(t, db, "d@example.com")
	other := seedUser(t, db, "e@example.com")

	r1 := seedReview(t, db, u.ID, m.ID, 8)
	r2 := seedReview(t, db, other.ID, m.ID, 6)

	if err := InsertReaction(ctx, db, u.ID, domain.TargetReview, r2.ID, domain.PolarityLike); err != nil {
		t.Fatalf("insert: %v", err)
	}

	liked, err := ReactedTargetIDs(ctx, db, u.ID, domain.TargetReview, domain.PolarityLike, []int64{r1.ID, r2.ID})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if _, ok := liked[r2.ID]; !ok {
		t.Fatalf("r2 missing from liked set")
	}
	if _, ok := liked[r1.ID]; ok {
		t.Fatalf("r1 unexpectedly in liked set")
	}

	none, err := ReactedTargetIDs(ctx, db, u.ID, domain.TargetReview, domain.PolarityLike, nil)
	if err != nil {
		t.Fatalf("empty ids: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("want empty set, got %d entries", len(none))
	}
}

func TestCommentedReviewIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMovie(t, db, "Zodiac")
	u := seedUser(t, db, "f@example.com")
	other := seedUser(t, db, "g@example.com")

	r1 := seedReview(t, db, u.ID, m.ID, 7)
	r2 := seedReview(t, db, other.ID, m.ID, 8)

	seedComment(t, db, u.ID, r2.ID)
	seedComment(t, db, u.ID, r2.ID) // second comment, still one review id

	commented, err := CommentedReviewIDs(ctx, db, u.ID, []int64{r1.ID, r2.ID})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(commented) != 1 {
		t.Fatalf("want 1 review id, got %d", len(commented))
	}
	if _, ok := commented[r2.ID]; !ok {
		t.Fatalf("r2 missing from commented set")
	}
}
