package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is how long a revalidatable entry lives when the backend
	// sends neither Cache-Control max-age nor Expires.
	DefaultTTL = 10 * time.Minute

	// MaxEntryBytes caps the body size kept in Redis.
	MaxEntryBytes = 8 << 20
)

var (
	// ErrNotStorable marks responses the backend asked us not to store.
	ErrNotStorable = errors.New("response is not storable")

	// ErrEntryTooLarge marks bodies above MaxEntryBytes.
	ErrEntryTooLarge = errors.New("response body exceeds cache limit")
)

// NewEntry captures resp as a cache entry. The body is always handed back
// to resp intact, including when the entry is rejected, so the caller can
// still decode it.
func NewEntry(resp *http.Response, now time.Time) (*CacheEntry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}
	if noStore(resp.Header) {
		return nil, ErrNotStorable
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > MaxEntryBytes {
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(body), resp.Body), resp.Body}
		return nil, ErrEntryTooLarge
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	entry := &CacheEntry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		CachedAt:   now,
		Expires:    expiresAt(resp.Header, now),
	}
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		entry.LastModified = lm
	}
	return entry, nil
}

// noStore reports Cache-Control: no-store.
func noStore(h http.Header) bool {
	for _, directive := range cacheControl(h) {
		if directive == "no-store" {
			return true
		}
	}
	return false
}

// expiresAt picks the entry deadline: max-age wins over Expires, and
// DefaultTTL covers a response that carries neither. Past dates yield now.
func expiresAt(h http.Header, now time.Time) time.Time {
	for _, directive := range cacheControl(h) {
		if v, ok := strings.CutPrefix(directive, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
				return now.Add(time.Duration(secs) * time.Second)
			}
		}
	}

	raw := h.Get("Expires")
	if raw == "" {
		return now.Add(DefaultTTL)
	}
	expires, err := http.ParseTime(raw)
	if err != nil {
		return now.Add(DefaultTTL)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}

func cacheControl(h http.Header) []string {
	var directives []string
	for _, line := range h.Values("Cache-Control") {
		for _, part := range strings.Split(line, ",") {
			if d := strings.ToLower(strings.TrimSpace(part)); d != "" {
				directives = append(directives, d)
			}
		}
	}
	return directives
}

// Revalidatable reports whether the entry carries a validator the backend
// can answer 304 against.
func Revalidatable(entry *CacheEntry) bool {
	return entry != nil && (entry.ETag != "" || !entry.LastModified.IsZero())
}

// SetValidators turns req into a conditional GET for entry. If-None-Match
// takes precedence; If-Modified-Since is only sent without an ETag.
func SetValidators(req *http.Request, entry *CacheEntry) {
	if req == nil || !Revalidatable(entry) {
		return
	}
	if req.Header == nil {
		req.Header = http.Header{}
	}
	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
		return
	}
	req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
}
