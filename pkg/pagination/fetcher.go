package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/threedollars/admin-console/pkg/client"
)

// Page size bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Getter is the slice of the backend client the fetcher needs.
type Getter interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// PageSource fetches one page of a list.
type PageSource[T Identifiable] interface {
	FetchPage(ctx context.Context, filter url.Values, cursor Cursor, size int) (Page[T], error)
}

// DecodeFunc decodes one list item.
type DecodeFunc[T any] func(raw json.RawMessage) (T, error)

// Fetcher is the cursor pagination client for one list endpoint.
// It is stateless and safe for concurrent use.
type Fetcher[T Identifiable] struct {
	getter Getter
	path   string
	decode DecodeFunc[T]
}

// NewFetcher creates a fetcher decoding items with encoding/json.
func NewFetcher[T Identifiable](getter Getter, path string) *Fetcher[T] {
	return NewFetcherFunc(getter, path, func(raw json.RawMessage) (T, error) {
		var item T
		err := json.Unmarshal(raw, &item)
		return item, err
	})
}

// NewFetcherFunc creates a fetcher with a custom item decoder.
func NewFetcherFunc[T Identifiable](getter Getter, path string, decode DecodeFunc[T]) *Fetcher[T] {
	return &Fetcher[T]{
		getter: getter,
		path:   path,
		decode: decode,
	}
}

// Path returns the list endpoint.
func (f *Fetcher[T]) Path() string {
	return f.path
}

// FetchPage requests the page at cursor. Filter parameters are passed
// through untouched; "cursor" and "size" are owned by the fetcher.
func (f *Fetcher[T]) FetchPage(ctx context.Context, filter url.Values, cursor Cursor, size int) (Page[T], error) {
	query := BuildQuery(filter, cursor, size)

	var wire wirePage
	if err := f.getter.GetJSON(ctx, f.path, query, &wire); err != nil {
		return Page[T]{}, asListError(err)
	}

	if wire.Contents == nil {
		return Page[T]{}, client.NewProtocolError("page has no contents", nil)
	}
	if wire.Cursor == nil {
		return Page[T]{}, client.NewProtocolError("page has no cursor", nil)
	}

	page := Page[T]{
		Contents: make([]T, 0, len(*wire.Contents)),
		Cursor:   *wire.Cursor,
	}
	if err := page.Validate(); err != nil {
		return Page[T]{}, err
	}

	for i, raw := range *wire.Contents {
		item, err := f.decode(raw)
		if err != nil {
			return Page[T]{}, client.NewProtocolError(fmt.Sprintf("decode item %d", i), err)
		}
		if item.ItemID() == "" {
			return Page[T]{}, client.NewProtocolError(fmt.Sprintf("item %d has no id", i), nil)
		}
		page.Contents = append(page.Contents, item)
	}

	return page, nil
}

// BuildQuery merges filter parameters with the cursor and a normalized size.
func BuildQuery(filter url.Values, cursor Cursor, size int) url.Values {
	query := url.Values{}
	for key, values := range filter {
		if key == "cursor" || key == "size" {
			continue
		}
		query[key] = append([]string(nil), values...)
	}
	if !cursor.IsStart() {
		query.Set("cursor", string(cursor))
	}
	query.Set("size", strconv.Itoa(NormalizeSize(size)))
	return query
}

// NormalizeSize applies the default and the upper bound to a page size.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// asListError reclassifies an {ok:false} envelope on a list read as a
// protocol error: list endpoints have no business rejections.
func asListError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) &&
		apiErr.Class == client.ErrorClassApplication && apiErr.StatusCode < 400 {
		return &client.APIError{
			Class:      client.ErrorClassProtocol,
			StatusCode: apiErr.StatusCode,
			Message:    "list request rejected: " + apiErr.Message,
			Err:        apiErr,
		}
	}
	return err
}
