package pagination

// Status is the load state of a list.
type Status string

const (
	// StatusIdle: no fetch in flight, more pages may be requested.
	StatusIdle Status = "idle"

	// StatusLoading: exactly one fetch is in flight.
	StatusLoading Status = "loading"

	// StatusExhausted: the backend reported hasMore=false.
	StatusExhausted Status = "exhausted"

	// StatusFailed: the last fetch failed; the user may retry.
	StatusFailed Status = "failed"
)

// Mode selects how ApplyPage merges a page into the list.
type Mode int

const (
	// ModeReplace sets the items to the page contents.
	ModeReplace Mode = iota

	// ModeAppend adds the page after the existing items.
	ModeAppend
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "replace"
}

// Ticket identifies one dispatched fetch. A ticket from an older epoch can
// no longer change the state.
type Ticket struct {
	epoch  uint64
	cursor Cursor
	mode   Mode
}

// Epoch returns the list generation the fetch belongs to.
func (t Ticket) Epoch() uint64 { return t.epoch }

// Cursor returns the cursor to send.
func (t Ticket) Cursor() Cursor { return t.cursor }

// Mode returns how the resulting page must be applied.
func (t Ticket) Mode() Mode { return t.mode }

// State is the list reducer. It is not safe for concurrent use; List wraps
// it with a mutex.
type State[T Identifiable] struct {
	items   []T
	ids     map[string]struct{}
	hasMore bool
	cursor  Cursor
	loading bool
	loaded  bool
	failed  bool
	epoch   uint64
}

// NewState returns an empty, idle state.
func NewState[T Identifiable]() *State[T] {
	return &State[T]{ids: make(map[string]struct{})}
}

// Reset clears items, cursor and hasMore, marks the list loading and starts
// a new epoch. The returned ticket fetches the first page. Any fetch still
// in flight belongs to the previous epoch and will be discarded.
func (s *State[T]) Reset() Ticket {
	s.items = nil
	s.ids = make(map[string]struct{})
	s.hasMore = false
	s.cursor = ""
	s.loaded = false
	s.failed = false
	s.loading = true
	s.epoch++

	return Ticket{epoch: s.epoch, mode: ModeReplace}
}

// Begin starts the next fetch. It returns false, leaving the state as is,
// while a fetch is in flight or when the list is exhausted. A list whose
// first page never arrived starts over from the first page.
func (s *State[T]) Begin() (Ticket, bool) {
	if s.loading {
		return Ticket{}, false
	}
	if !s.loaded {
		s.loading = true
		return Ticket{epoch: s.epoch, mode: ModeReplace}, true
	}
	if !s.hasMore {
		return Ticket{}, false
	}
	s.loading = true
	return Ticket{epoch: s.epoch, cursor: s.cursor, mode: ModeAppend}, true
}

// ApplyPage merges page into the list and clears the loading flag.
//
// In replace mode items become the page contents; in append mode the page
// follows the existing items. Either way items with an id already present
// are dropped, keeping the first occurrence and its position. hasMore comes
// from the page and cursor is reset to empty when hasMore is false.
//
// Pages for a stale ticket, or arriving when no fetch is in flight, are
// dropped and ApplyPage returns false.
func (s *State[T]) ApplyPage(t Ticket, page Page[T], mode Mode) bool {
	if !s.accepts(t) {
		return false
	}

	if mode == ModeReplace {
		s.items = make([]T, 0, len(page.Contents))
		s.ids = make(map[string]struct{}, len(page.Contents))
	}
	for _, item := range page.Contents {
		id := item.ItemID()
		if _, dup := s.ids[id]; dup {
			continue
		}
		s.ids[id] = struct{}{}
		s.items = append(s.items, item)
	}

	s.hasMore = page.Cursor.HasMore
	s.cursor = page.Next()
	s.loading = false
	s.loaded = true
	s.failed = false

	return true
}

// Fail records that the fetch for t failed. Items, hasMore and cursor stay
// untouched so the same page can be requested again.
func (s *State[T]) Fail(t Ticket) bool {
	if !s.accepts(t) {
		return false
	}
	s.loading = false
	s.failed = true
	return true
}

// RemoveByID drops the item with the given id, preserving the order of the
// others. It reports whether an item was removed.
func (s *State[T]) RemoveByID(id string) bool {
	if _, ok := s.ids[id]; !ok {
		return false
	}
	delete(s.ids, id)
	for i, item := range s.items {
		if item.ItemID() == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

func (s *State[T]) accepts(t Ticket) bool {
	return s.loading && t.epoch == s.epoch
}

// Items returns a copy of the current items.
func (s *State[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items.
func (s *State[T]) Len() int { return len(s.items) }

// HasMore reports whether the backend announced more pages.
func (s *State[T]) HasMore() bool { return s.hasMore }

// Cursor returns the cursor of the next page, empty when there is none.
func (s *State[T]) Cursor() Cursor { return s.cursor }

// Loading reports whether a fetch is in flight.
func (s *State[T]) Loading() bool { return s.loading }

// Epoch returns the current generation.
func (s *State[T]) Epoch() uint64 { return s.epoch }

// Status derives the state machine position from the flags.
func (s *State[T]) Status() Status {
	switch {
	case s.loading:
		return StatusLoading
	case s.failed:
		return StatusFailed
	case s.loaded && !s.hasMore:
		return StatusExhausted
	default:
		return StatusIdle
	}
}
