package domain

import "time"

// Genre is a descriptive tag on movies (many-to-many). Names are unique and
// stored as entered by the first admin to use them.
type Genre struct {
	ID   int64  `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(64);not null;uniqueIndex"`
}

// TableName returns the database table name for Genre.
func (Genre) TableName() string { return "genres" }

// Country is a production country attached to movies (many-to-many).
type Country struct {
	ID   int64  `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(64);not null;uniqueIndex"`
}

// TableName returns the database table name for Country.
func (Country) TableName() string { return "countries" }

// ListKind identifies which personal movie list an entry belongs to.
type ListKind string

// Personal list kinds.
const (
	ListWatched ListKind = "watched"
	ListWished  ListKind = "wished"
)

// Valid reports whether k is one of the supported list kinds.
func (k ListKind) Valid() bool {
	return k == ListWatched || k == ListWished
}

// MovieListEntry records that a user put a movie on one of their personal
// lists. The unique index on (user_id, kind, movie_id) makes membership
// idempotent; the autoincrement id doubles as the list's recency order.
type MovieListEntry struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id"    gorm:"not null;index;uniqueIndex:ux_list_user_kind_movie,priority:1"`
	Kind      ListKind  `json:"kind"       gorm:"type:varchar(16);not null;uniqueIndex:ux_list_user_kind_movie,priority:2;check:kind IN ('watched','wished')"`
	MovieID   int64     `json:"movie_id"   gorm:"not null;index;uniqueIndex:ux_list_user_kind_movie,priority:3"`
	CreatedAt time.Time `json:"created_at"`

	// Movie is the listed title. Entries are cascade-deleted if the movie
	// is removed.
	Movie Movie `json:"-" gorm:"foreignKey:MovieID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MovieListEntry.
func (MovieListEntry) TableName() string { return "movie_lists" }
