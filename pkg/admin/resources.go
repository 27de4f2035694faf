// Package admin describes the list resources of the admin backend and the
// mutations the console performs on them.
package admin

import (
	"errors"
	"sort"
)

// ErrUnknownResource is returned when a resource name is not registered.
var ErrUnknownResource = errors.New("unknown resource")

// Resource is one cursor-paginated admin list.
type Resource struct {
	// Name is the console-facing key, e.g. "coupons"
	Name string `json:"name"`

	// Path is the backend list endpoint. Items are deleted at Path/<id>.
	Path string `json:"path"`

	// IDField is the JSON field holding the item id
	IDField string `json:"idField"`

	// Title is shown in the console navigation
	Title string `json:"title"`

	// Deletable reports whether items can be deleted from the list
	Deletable bool `json:"deletable"`
}

// ItemPath returns the endpoint of one item.
func (r Resource) ItemPath(id string) string {
	return r.Path + "/" + id
}

var registry = map[string]Resource{
	"advertisements": {Name: "advertisements", Path: "/v1/advertisements", IDField: "advertisementId", Title: "광고 관리", Deletable: true},
	"registrations":  {Name: "registrations", Path: "/v1/store-registrations", IDField: "registrationId", Title: "제보 관리", Deletable: true},
	"faqs":           {Name: "faqs", Path: "/v1/faqs", IDField: "faqId", Title: "FAQ 관리", Deletable: true},
	"coupons":        {Name: "coupons", Path: "/v1/coupons", IDField: "couponId", Title: "쿠폰 관리", Deletable: true},
	"medals":         {Name: "medals", Path: "/v1/medals", IDField: "medalId", Title: "메달 관리", Deletable: true},
	"polls":          {Name: "polls", Path: "/v1/polls", IDField: "pollId", Title: "투표 관리", Deletable: true},
	"store-images":   {Name: "store-images", Path: "/v1/store-images", IDField: "imageId", Title: "가게 이미지", Deletable: true},
	"store-messages": {Name: "store-messages", Path: "/v1/store-messages", IDField: "messageId", Title: "가게 메시지", Deletable: true},
	"user-rankings":  {Name: "user-rankings", Path: "/v1/user-rankings", IDField: "userId", Title: "유저 랭킹"},
	"users":          {Name: "users", Path: "/v1/users", IDField: "userId", Title: "유저 검색"},
	"stores":         {Name: "stores", Path: "/v1/stores", IDField: "storeId", Title: "가게 검색", Deletable: true},
	"push-histories": {Name: "push-histories", Path: "/v1/push-histories", IDField: "pushId", Title: "푸시 이력"},
}

// Lookup returns the resource registered under name.
func Lookup(name string) (Resource, error) {
	r, ok := registry[name]
	if !ok {
		return Resource{}, ErrUnknownResource
	}
	return r, nil
}

// Resources returns all registered resources sorted by name.
func Resources() []Resource {
	out := make([]Resource, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
