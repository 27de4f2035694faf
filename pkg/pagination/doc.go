// Package pagination implements cursor-based infinite scroll for admin list
// screens.
//
// The backend pages lists with an opaque cursor:
//
//	{"contents": [...], "cursor": {"hasMore": true, "nextCursor": "abc"}}
//
// Three pieces cooperate:
//
//   - Fetcher turns (filter, cursor, size) into a request and validates the
//     returned Page. Malformed pages fail as protocol errors, never as empty
//     pages.
//   - State is the list reducer: Reset, Begin, ApplyPage, Fail, RemoveByID.
//     It enforces one fetch in flight per list, de-duplicates items by id and
//     drops pages that belong to an earlier epoch (a reset happened while the
//     request was in flight).
//   - Controller decides when the viewport is close enough to the bottom to
//     load the next page: once per approach, debounced, never while loading
//     or exhausted.
//
// List glues Fetcher and State together behind a mutex so HTTP handlers can
// share one list per mounted view:
//
//	list := pagination.NewList[admin.Coupon](fetcher, pagination.ListConfig{Name: "coupons"})
//	if err := list.Refresh(ctx, url.Values{"status": {"ACTIVE"}}); err != nil {
//		// the snapshot carries a notice; the list stays usable
//	}
//	ctrl := pagination.NewController(list, pagination.DefaultControllerConfig())
//	decision, err := ctrl.Observe(ctx, viewport)
//
// Collector walks every page of a list for exports. Cursor pages depend on
// each other, so it fetches sequentially.
package pagination
