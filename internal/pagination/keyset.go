// Package pagination implements generic keyset (cursor) pagination over GORM
// queries. Pages are addressed by a compound comparison on the last-seen
// row's (sortValue, id) rather than by offset, so concurrent inserts and
// deletes between page fetches can neither duplicate nor skip rows.
//
// The id column is always appended as a tie-break key in the same direction
// as the primary sort dimension; rows with equal sort values therefore still
// have a total, stable order.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors surfaced to callers; handlers translate both to
// InvalidArgument responses.
var (
	// ErrInvalidCursor is returned when a client-supplied cursor cannot be
	// decoded or is missing the sort value the sort dimension requires.
	ErrInvalidCursor = errors.New("invalid pagination cursor")

	// ErrUnsupportedSort is returned when the requested sort field is not in
	// the collection's whitelist.
	ErrUnsupportedSort = errors.New("unsupported sort field")
)

// Order is a sort direction.
type Order string

// Supported sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder normalizes a raw direction string, defaulting to descending.
func ParseOrder(s string) Order {
	if s == string(Asc) {
		return Asc
	}
	return Desc
}

// SortSpec names the primary sort dimension and direction for a page
// request. An empty Field (or "id") sorts by id alone.
type SortSpec struct {
	Field string
	Order Order
}

// byID reports whether the spec sorts by the id column alone.
func (s SortSpec) byID() bool { return s.Field == "" || s.Field == "id" }

// Cursor identifies the last row of the previous page. SortValue carries the
// primary sort dimension's value for that row and is absent when sorting by
// id alone. Cursors are pure values: reconstructed per request, never stored
// server-side.
type Cursor struct {
	ID        int64    `json:"id"`
	SortValue *float64 `json:"sort_value,omitempty"`
}

// Encode serializes the cursor into the opaque token handed to clients.
func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode parses a client-supplied cursor token. An empty token yields a nil
// cursor (first page). Malformed tokens yield ErrInvalidCursor.
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.ID <= 0 {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// Apply adds the keyset predicate and the (sortColumn, id) ordering for spec
// to q. columns whitelists the sortable fields of the collection, mapping
// the public field name to its SQL column; id is always allowed and always
// used as the final tie-break key.
//
// With a cursor present the next page is selected by the compound predicate
// (sortValue, id) strictly beyond (cursor.SortValue, cursor.ID) in the sort
// direction, never by offset.
func Apply(q *gorm.DB, spec SortSpec, cur *Cursor, columns map[string]string) (*gorm.DB, error) {
	dir := "DESC"
	cmp := "<"
	if spec.Order == Asc {
		dir = "ASC"
		cmp = ">"
	}

	if spec.byID() {
		if cur != nil {
			q = q.Where(fmt.Sprintf("id %s ?", cmp), cur.ID)
		}
		return q.Order("id " + dir), nil
	}

	col, ok := columns[spec.Field]
	if !ok {
		return nil, ErrUnsupportedSort
	}
	if cur != nil {
		if cur.SortValue == nil {
			return nil, ErrInvalidCursor
		}
		q = q.Where(
			fmt.Sprintf("(%s %s ? OR (%s = ? AND id %s ?))", col, cmp, col, cmp),
			*cur.SortValue, *cur.SortValue, cur.ID,
		)
	}
	return q.Order(fmt.Sprintf("%s %s, id %s", col, dir, dir)), nil
}

// Next builds the cursor for the page following rows, or nil when the page
// came back short (last page). id and sortValue extract the tie-break key
// and the primary sort value from the final row; sortValue is ignored when
// spec sorts by id alone.
func Next[T any](rows []T, limit int, spec SortSpec, id func(T) int64, sortValue func(T) float64) *Cursor {
	if limit <= 0 || len(rows) < limit {
		return nil
	}
	last := rows[len(rows)-1]
	c := &Cursor{ID: id(last)}
	if !spec.byID() {
		v := sortValue(last)
		c.SortValue = &v
	}
	return c
}
