package console

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/threedollars/admin-console/pkg/admin"
	"github.com/threedollars/admin-console/pkg/pagination"
)

// ErrViewNotFound is returned for unknown views and views owned by another
// session.
var ErrViewNotFound = errors.New("view not found")

// View is one mounted list screen: its list state, its scroll controller
// and the admin service bound to the owner's token.
type View struct {
	ID         string
	Owner      string
	Resource   admin.Resource
	List       *pagination.List[admin.Record]
	Controller *pagination.Controller
	Service    *admin.Service
	CreatedAt  time.Time

	mu       sync.Mutex
	lastUsed time.Time
}

// Info is the JSON description of a view.
type Info struct {
	ID        string         `json:"id"`
	Resource  admin.Resource `json:"resource"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Info describes the view.
func (v *View) Info() Info {
	return Info{ID: v.ID, Resource: v.Resource, CreatedAt: v.CreatedAt}
}

func (v *View) touch(now time.Time) {
	v.mu.Lock()
	v.lastUsed = now
	v.mu.Unlock()
}

func (v *View) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastUsed
}

// Registry owns the mounted views of a console server.
type Registry struct {
	mu     sync.Mutex
	views  map[string]*View
	idle   time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewRegistry creates an empty registry. Views unused for idle are removed
// by Sweep; idle <= 0 disables sweeping.
func NewRegistry(idle time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		views:  make(map[string]*View),
		idle:   idle,
		now:    time.Now,
		logger: logger,
	}
}

// NewView allocates a view for owner without registering it.
func (r *Registry) NewView(owner string, resource admin.Resource) *View {
	now := r.now()
	return &View{
		ID:        uuid.NewString(),
		Owner:     owner,
		Resource:  resource,
		CreatedAt: now,
		lastUsed:  now,
	}
}

// Add registers a view.
func (r *Registry) Add(v *View) {
	r.mu.Lock()
	r.views[v.ID] = v
	count := len(r.views)
	r.mu.Unlock()

	viewsMounted.Set(float64(count))
	r.logger.Info().
		Str("view_id", v.ID).
		Str("resource", v.Resource.Name).
		Int("views", count).
		Msg("View mounted")
}

// Get returns owner's view id.
func (r *Registry) Get(owner, id string) (*View, error) {
	r.mu.Lock()
	v, ok := r.views[id]
	r.mu.Unlock()

	if !ok || v.Owner != owner {
		return nil, ErrViewNotFound
	}
	v.touch(r.now())
	return v, nil
}

// Remove unmounts owner's view id and closes its list.
func (r *Registry) Remove(owner, id string) error {
	r.mu.Lock()
	v, ok := r.views[id]
	if !ok || v.Owner != owner {
		r.mu.Unlock()
		return ErrViewNotFound
	}
	delete(r.views, id)
	count := len(r.views)
	r.mu.Unlock()

	v.List.Close()
	viewsMounted.Set(float64(count))
	r.logger.Info().Str("view_id", id).Int("views", count).Msg("View unmounted")
	return nil
}

// RemoveOwner unmounts every view of owner, used on sign-out.
func (r *Registry) RemoveOwner(owner string) int {
	r.mu.Lock()
	var closed []*View
	for id, v := range r.views {
		if v.Owner == owner {
			closed = append(closed, v)
			delete(r.views, id)
		}
	}
	count := len(r.views)
	r.mu.Unlock()

	for _, v := range closed {
		v.List.Close()
	}
	viewsMounted.Set(float64(count))
	return len(closed)
}

// Sweep unmounts views idle for longer than the idle timeout.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var expired []*View
	for id, v := range r.views {
		if v.idleSince().Before(cutoff) {
			expired = append(expired, v)
			delete(r.views, id)
		}
	}
	count := len(r.views)
	r.mu.Unlock()

	for _, v := range expired {
		v.List.Close()
	}
	if len(expired) > 0 {
		viewsMounted.Set(float64(count))
		viewsExpiredTotal.Add(float64(len(expired)))
		r.logger.Info().Int("expired", len(expired)).Int("views", count).Msg("Idle views swept")
	}
	return len(expired)
}

// Len returns the number of mounted views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Close unmounts every view.
func (r *Registry) Close() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*View)
	r.mu.Unlock()

	for _, v := range views {
		v.List.Close()
	}
	viewsMounted.Set(0)
}
