package admin

import (
	"errors"
	"sort"
	"testing"
)

func TestLookup(t *testing.T) {
	r, err := Lookup("coupons")
	if err != nil {
		t.Fatalf("Lookup(coupons) error = %v", err)
	}
	if r.Path != "/v1/coupons" || r.IDField != "couponId" {
		t.Errorf("coupons = %+v", r)
	}
	if got := r.ItemPath("42"); got != "/v1/coupons/42" {
		t.Errorf("ItemPath = %q", got)
	}

	if _, err := Lookup("payments"); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("Lookup(payments) error = %v, want ErrUnknownResource", err)
	}
}

func TestResources(t *testing.T) {
	resources := Resources()

	if len(resources) != len(registry) {
		t.Fatalf("Resources() returned %d, want %d", len(resources), len(registry))
	}
	if !sort.SliceIsSorted(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name }) {
		t.Error("Resources() is not sorted by name")
	}
	for _, r := range resources {
		if r.Path == "" || r.IDField == "" || r.Title == "" {
			t.Errorf("incomplete resource %+v", r)
		}
		if registry[r.Name].Name != r.Name {
			t.Errorf("resource %q registered under another key", r.Name)
		}
	}
}
