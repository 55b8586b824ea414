// Package domain defines the persistence models for movies, reviews,
// comments, reactions, and users. These types are mapped with GORM and form
// the core data layer of the review platform.
//
// Aggregate columns (Movie.Rating, Movie.TotalReviews, Review.TotalLikes,
// Review.TotalDislikes, Review.TotalComments, Comment.TotalLikes,
// Comment.TotalDislikes, User.TotalReviews) are derived state: they are only
// ever mutated by single atomic arithmetic updates issued from the repo
// layer, never recomputed by scanning the source rows.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// TargetType identifies which entity a reaction is attached to.
type TargetType string

// Reaction target types.
const (
	TargetReview  TargetType = "review"
	TargetComment TargetType = "comment"
)

// Polarity is the kind of reaction a user applied to a target. A user holds
// at most one polarity per target; "like" and "dislike" are mutually
// exclusive by the unique index on (user_id, target_type, target_id).
type Polarity string

// Reaction polarities.
const (
	PolarityLike    Polarity = "like"
	PolarityDislike Polarity = "dislike"
)

// Opposite returns the other polarity.
func (p Polarity) Opposite() Polarity {
	if p == PolarityLike {
		return PolarityDislike
	}
	return PolarityLike
}

// Valid reports whether p is one of the two supported polarities.
func (p Polarity) Valid() bool {
	return p == PolarityLike || p == PolarityDislike
}

// Movie represents a catalogue entry. Rating is the 2-decimal running
// average of all existing reviews' ratings; TotalReviews is their exact
// count. Rating is 0 whenever TotalReviews is 0.
type Movie struct {
	ID           int64     `json:"id"            gorm:"primaryKey;autoIncrement"`
	Title        string    `json:"title"         gorm:"type:varchar(255);not null;uniqueIndex"`
	Description  string    `json:"description"   gorm:"type:text"`
	ReleaseYear  int       `json:"release_year"  gorm:"not null;index"`
	Duration     int       `json:"duration"` // minutes
	AgeLimit     int       `json:"age_limit"`
	PosterURL    string    `json:"poster_url"    gorm:"type:varchar(512)"`
	Rating       float64   `json:"rating"        gorm:"not null;default:0;index"`
	TotalReviews int       `json:"total_reviews" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Genres    []Genre   `json:"genres"    gorm:"many2many:movie_genres;constraint:OnDelete:CASCADE"`
	Countries []Country `json:"countries" gorm:"many2many:movie_countries;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for Movie.
func (Movie) TableName() string { return "movies" }

// Review is a user's rating and write-up for a movie. A user may review a
// movie at most once (unique index on user_id, movie_id). Rating uses
// half-step increments in [0.5, 10]. IsChanged is set on the first edit and
// never reset. The reaction and comment counters mirror the exact number of
// matching Reaction/Comment rows.
type Review struct {
	ID            int64     `json:"id"             gorm:"primaryKey;autoIncrement"`
	UserID        int64     `json:"user_id"        gorm:"not null;index;uniqueIndex:ux_review_user_movie,priority:1"`
	MovieID       int64     `json:"movie_id"       gorm:"not null;index;uniqueIndex:ux_review_user_movie,priority:2"`
	Rating        float64   `json:"rating"         gorm:"not null"`
	Message       string    `json:"message"        gorm:"type:text;not null"`
	IsChanged     bool      `json:"is_changed"     gorm:"not null;default:false"`
	TotalLikes    int       `json:"total_likes"    gorm:"not null;default:0;index"`
	TotalDislikes int       `json:"total_dislikes" gorm:"not null;default:0;index"`
	TotalComments int       `json:"total_comments" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Movie is the reviewed title. Reviews are cascade-deleted if the
	// movie is removed.
	Movie Movie `json:"-" gorm:"foreignKey:MovieID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// Comment is a user's reply under a review. Its relationship to the parent
// review's TotalComments mirrors the Review↔Movie aggregate relationship one
// level down.
type Comment struct {
	ID            int64     `json:"id"             gorm:"primaryKey;autoIncrement"`
	UserID        int64     `json:"user_id"        gorm:"not null;index"`
	ReviewID      int64     `json:"review_id"      gorm:"not null;index"`
	Message       string    `json:"message"        gorm:"type:text;not null"`
	IsChanged     bool      `json:"is_changed"     gorm:"not null;default:false"`
	TotalLikes    int       `json:"total_likes"    gorm:"not null;default:0;index"`
	TotalDislikes int       `json:"total_dislikes" gorm:"not null;default:0;index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Review is the parent review. Comments are cascade-deleted if the
	// review is removed.
	Review Review `json:"-" gorm:"foreignKey:ReviewID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Reaction is a single ledger entry recording that a user reacted to a
// target (review or comment) with one polarity. The unique index on
// (user_id, target_type, target_id) is the storage-level guarantee that a
// user never holds both a like and a dislike on the same target.
type Reaction struct {
	ID         string     `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     int64      `json:"user_id"     gorm:"not null;index;uniqueIndex:ux_reaction_user_target,priority:1"`
	TargetType TargetType `json:"target_type" gorm:"type:varchar(16);not null;uniqueIndex:ux_reaction_user_target,priority:2;check:target_type IN ('review','comment')"`
	TargetID   int64      `json:"target_id"   gorm:"not null;index;uniqueIndex:ux_reaction_user_target,priority:3"`
	Polarity   Polarity   `json:"polarity"    gorm:"type:varchar(8);not null;check:polarity IN ('like','dislike')"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Reaction.
func (Reaction) TableName() string { return "reactions" }

// User carries the per-user aggregate fields the engine maintains. Identity
// and credentials live in the session layer; this row only exists so
// TotalReviews has somewhere to be incremented.
type User struct {
	ID           int64          `json:"id"            gorm:"primaryKey;autoIncrement"`
	DisplayName  string         `json:"display_name"  gorm:"type:varchar(128);not null"`
	Email        string         `json:"email"         gorm:"type:varchar(255);not null;uniqueIndex"`
	AvatarURL    string         `json:"avatar_url"    gorm:"type:varchar(512)"`
	TotalReviews int            `json:"total_reviews" gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
