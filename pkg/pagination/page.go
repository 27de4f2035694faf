package pagination

import (
	"encoding/json"

	"github.com/threedollars/admin-console/pkg/client"
)

// Cursor is the opaque pagination token issued by the backend.
// The empty cursor means "start from the beginning".
type Cursor string

// IsStart reports whether the cursor addresses the first page.
func (c Cursor) IsStart() bool {
	return c == ""
}

// Identifiable is implemented by list items with a stable unique id.
type Identifiable interface {
	ItemID() string
}

// CursorInfo is the "cursor" object of a page.
type CursorInfo struct {
	HasMore    bool    `json:"hasMore"`
	NextCursor *string `json:"nextCursor"`
}

// Page is one slice of a cursor-paginated list.
type Page[T any] struct {
	Contents []T        `json:"contents"`
	Cursor   CursorInfo `json:"cursor"`
}

// Next returns the cursor of the following page. The server's hasMore is
// trusted: when it is false the nextCursor field is ignored.
func (p Page[T]) Next() Cursor {
	if !p.Cursor.HasMore || p.Cursor.NextCursor == nil {
		return ""
	}
	return Cursor(*p.Cursor.NextCursor)
}

// Validate checks the hasMore/nextCursor contract.
func (p Page[T]) Validate() error {
	if p.Cursor.HasMore && (p.Cursor.NextCursor == nil || *p.Cursor.NextCursor == "") {
		return client.NewProtocolError("page has hasMore=true without nextCursor", nil)
	}
	return nil
}

// wirePage detects missing fields that a plain Page would silently zero.
type wirePage struct {
	Contents *[]json.RawMessage `json:"contents"`
	Cursor   *CursorInfo        `json:"cursor"`
}

// NewPage builds a page, mostly for tests and fakes. An empty next cursor
// yields hasMore=false.
func NewPage[T any](contents []T, next Cursor) Page[T] {
	page := Page[T]{Contents: contents}
	if next != "" {
		s := string(next)
		page.Cursor = CursorInfo{HasMore: true, NextCursor: &s}
	}
	return page
}
