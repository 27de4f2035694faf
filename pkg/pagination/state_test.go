package pagination

import (
	"reflect"
	"testing"
)

// loadedState returns a state holding page as its first page.
func loadedState(t *testing.T, page Page[testItem]) *State[testItem] {
	t.Helper()
	s := NewState[testItem]()
	ticket := s.Reset()
	if !s.ApplyPage(ticket, page, ModeReplace) {
		t.Fatal("first page was not applied")
	}
	return s
}

func TestState_NewIsIdle(t *testing.T) {
	s := NewState[testItem]()

	if s.Status() != StatusIdle {
		t.Errorf("Status() = %q, want idle", s.Status())
	}
	if s.Len() != 0 || s.HasMore() || s.Loading() || s.Cursor() != "" {
		t.Error("new state should be empty")
	}
}

func TestState_ResetIsIdempotent(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 20), "abc"))

	s.Reset()
	once := []any{s.Items(), s.HasMore(), s.Cursor(), s.Loading(), s.Status()}
	s.Reset()
	twice := []any{s.Items(), s.HasMore(), s.Cursor(), s.Loading(), s.Status()}

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("reset twice = %v, reset once = %v", twice, once)
	}
	if s.Len() != 0 || s.HasMore() || s.Cursor() != "" || !s.Loading() {
		t.Errorf("reset state = items %d hasMore %v cursor %q loading %v",
			s.Len(), s.HasMore(), s.Cursor(), s.Loading())
	}
}

func TestState_ApplyPageModes(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 3), "c1"))

	ticket, ok := s.Begin()
	if !ok || ticket.Mode() != ModeAppend || ticket.Cursor() != "c1" {
		t.Fatalf("Begin() = %+v, %v", ticket, ok)
	}
	s.ApplyPage(ticket, NewPage(makeItems(4, 5), "c2"), ModeAppend)
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("after append = %v", got)
	}

	ticket = s.Reset()
	s.ApplyPage(ticket, NewPage(makeItems(10, 11), ""), ModeReplace)
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int{10, 11}) {
		t.Errorf("after replace = %v", got)
	}
}

func TestState_NoDuplicates(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 5), "c1"))

	pages := []Page[testItem]{
		// overlaps 4,5
		NewPage(makeItems(4, 8), "c2"),
		// overlaps 8 and 1
		NewPage(append(makeItems(8, 9), makeItems(1, 1)...), "c3"),
		NewPage(append(makeItems(10, 10), makeItems(10, 10)...), ""),
	}
	for _, page := range pages {
		ticket, ok := s.Begin()
		if !ok {
			t.Fatal("Begin() refused while idle with hasMore")
		}
		s.ApplyPage(ticket, page, ModeAppend)
	}

	seen := make(map[int]bool)
	for _, item := range s.Items() {
		if seen[item.ID] {
			t.Fatalf("duplicate id %d in %v", item.ID, ids(s.Items()))
		}
		seen[item.ID] = true
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}) {
		t.Errorf("items = %v", got)
	}
}

func TestState_DuplicateKeepsFirstOccurrence(t *testing.T) {
	first := []testItem{{ID: 1, Name: "original"}, {ID: 2, Name: "b"}}
	s := loadedState(t, NewPage(first, "c1"))

	ticket, _ := s.Begin()
	s.ApplyPage(ticket, NewPage([]testItem{{ID: 3, Name: "c"}, {ID: 1, Name: "moved"}}, ""), ModeAppend)

	items := s.Items()
	if items[0].ID != 1 || items[0].Name != "original" {
		t.Errorf("first item = %+v, want the first-seen occurrence in place", items[0])
	}
	if got := ids(items); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("items = %v", got)
	}
}

func TestState_OrderPreservation(t *testing.T) {
	// the backend order is kept even when ids are not sorted
	s := loadedState(t, NewPage([]testItem{{ID: 9}, {ID: 3}, {ID: 7}}, "c1"))

	ticket, _ := s.Begin()
	s.ApplyPage(ticket, NewPage([]testItem{{ID: 1}, {ID: 8}}, ""), ModeAppend)

	if got := ids(s.Items()); !reflect.DeepEqual(got, []int{9, 3, 7, 1, 8}) {
		t.Errorf("items = %v, want backend order", got)
	}
}

func TestState_HasMoreCursorConsistency(t *testing.T) {
	tests := []struct {
		name   string
		cursor CursorInfo
	}{
		{"null cursor", CursorInfo{HasMore: false}},
		{"stray cursor", CursorInfo{HasMore: false, NextCursor: strPtr("ignored")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadedState(t, Page[testItem]{Contents: makeItems(1, 2), Cursor: tt.cursor})

			if s.HasMore() {
				t.Error("HasMore() = true")
			}
			if s.Cursor() != "" {
				t.Errorf("Cursor() = %q, want empty when hasMore is false", s.Cursor())
			}
			if s.Status() != StatusExhausted {
				t.Errorf("Status() = %q, want exhausted", s.Status())
			}
		})
	}
}

func TestState_AtMostOneInFlight(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 20), "abc"))

	ticket, ok := s.Begin()
	if !ok {
		t.Fatal("first Begin() should dispatch")
	}

	for i := 0; i < 5; i++ {
		if _, ok := s.Begin(); ok {
			t.Fatalf("Begin() #%d dispatched while loading", i+2)
		}
	}
	if s.Status() != StatusLoading {
		t.Errorf("Status() = %q, want loading", s.Status())
	}

	s.ApplyPage(ticket, NewPage(makeItems(21, 25), "def"), ModeAppend)
	if _, ok := s.Begin(); !ok {
		t.Error("Begin() should dispatch once the page resolved")
	}
}

func TestState_ApplyPageWithoutFetchIsNoop(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 3), "c1"))
	stale := Ticket{epoch: s.Epoch(), cursor: "c1", mode: ModeAppend}

	if s.ApplyPage(stale, NewPage(makeItems(4, 6), ""), ModeAppend) {
		t.Error("ApplyPage() applied a page while no fetch was in flight")
	}
	if s.Len() != 3 || !s.HasMore() {
		t.Errorf("state changed: len %d hasMore %v", s.Len(), s.HasMore())
	}
}

func TestState_StaleTicketDiscarded(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 3), "c1"))

	old, _ := s.Begin()
	fresh := s.Reset()

	if s.ApplyPage(old, NewPage(makeItems(50, 55), ""), ModeAppend) {
		t.Error("page from the previous epoch was applied")
	}
	if s.Fail(old) {
		t.Error("failure from the previous epoch was recorded")
	}
	if !s.Loading() {
		t.Error("stale result cleared the loading flag of the new fetch")
	}

	s.ApplyPage(fresh, NewPage(makeItems(100, 101), ""), ModeReplace)
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int{100, 101}) {
		t.Errorf("items = %v", got)
	}
}

func TestState_FailKeepsItems(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 20), "abc"))

	ticket, _ := s.Begin()
	if !s.Fail(ticket) {
		t.Fatal("Fail() rejected the current ticket")
	}

	if s.Len() != 20 {
		t.Errorf("Len() = %d, want 20", s.Len())
	}
	if s.Loading() {
		t.Error("Loading() = true after failure")
	}
	if !s.HasMore() || s.Cursor() != "abc" {
		t.Errorf("hasMore %v cursor %q, want unchanged", s.HasMore(), s.Cursor())
	}
	if s.Status() != StatusFailed {
		t.Errorf("Status() = %q, want failed", s.Status())
	}

	retry, ok := s.Begin()
	if !ok || retry.Cursor() != "abc" || retry.Mode() != ModeAppend {
		t.Errorf("retry = %+v, %v; want append from abc", retry, ok)
	}
}

func TestState_FailedFirstPageRestarts(t *testing.T) {
	s := NewState[testItem]()
	ticket := s.Reset()
	s.Fail(ticket)

	retry, ok := s.Begin()
	if !ok {
		t.Fatal("Begin() refused after a failed first page")
	}
	if retry.Mode() != ModeReplace || !retry.Cursor().IsStart() {
		t.Errorf("retry = %+v, want replace from the start", retry)
	}
}

func TestState_RemoveByID(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 20), "abc"))

	if !s.RemoveByID("7") {
		t.Fatal("RemoveByID(7) = false")
	}

	items := s.Items()
	if len(items) != 19 {
		t.Errorf("len = %d, want 19", len(items))
	}
	want := append(makeItems(1, 6), makeItems(8, 20)...)
	if !reflect.DeepEqual(ids(items), ids(want)) {
		t.Errorf("items = %v, want %v", ids(items), ids(want))
	}

	if s.RemoveByID("7") {
		t.Error("second RemoveByID(7) = true")
	}
	if s.RemoveByID("404") {
		t.Error("RemoveByID of an unknown id = true")
	}
}

func TestState_RemovedIDCanReappear(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 3), "c1"))
	s.RemoveByID("2")

	ticket, _ := s.Begin()
	s.ApplyPage(ticket, NewPage(makeItems(2, 2), ""), ModeAppend)

	if got := ids(s.Items()); !reflect.DeepEqual(got, []int{1, 3, 2}) {
		t.Errorf("items = %v", got)
	}
}

func TestState_ItemsIsACopy(t *testing.T) {
	s := loadedState(t, NewPage(makeItems(1, 3), ""))

	items := s.Items()
	items[0].Name = "mutated"

	if s.Items()[0].Name == "mutated" {
		t.Error("Items() exposed the internal slice")
	}
}

func TestMode_String(t *testing.T) {
	if ModeReplace.String() != "replace" || ModeAppend.String() != "append" {
		t.Errorf("got %q, %q", ModeReplace, ModeAppend)
	}
}
