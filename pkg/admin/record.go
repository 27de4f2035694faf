package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/threedollars/admin-console/pkg/pagination"
)

// Record is an untyped list item that keeps the backend's fields as-is.
// Views use it so every resource shares one list implementation.
type Record struct {
	id     string
	fields map[string]any
}

// NewRecord builds a record; mostly useful in tests.
func NewRecord(id string, fields map[string]any) Record {
	return Record{id: id, fields: fields}
}

// ItemID returns the value of the resource's id field.
func (r Record) ItemID() string { return r.id }

// Field returns one backend field.
func (r Record) Field(name string) (any, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// MarshalJSON writes the backend fields unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.fields)
}

// RecordDecoder decodes items whose id lives in idField. Numbers are kept
// as json.Number so large ids survive the round trip.
func RecordDecoder(idField string) pagination.DecodeFunc[Record] {
	return func(raw json.RawMessage) (Record, error) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()

		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return Record{}, err
		}
		if fields == nil {
			return Record{}, fmt.Errorf("item is not an object")
		}

		id, err := idString(fields[idField])
		if err != nil {
			return Record{}, fmt.Errorf("field %q: %w", idField, err)
		}
		return Record{id: id, fields: fields}, nil
	}
}

func idString(v any) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", fmt.Errorf("missing id")
	case string:
		if strings.TrimSpace(id) == "" {
			return "", fmt.Errorf("empty id")
		}
		return id, nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("unsupported id type %T", v)
	}
}
