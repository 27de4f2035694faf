package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/threedollars/admin-console/pkg/client"
	"github.com/threedollars/admin-console/pkg/pagination"
)

var mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "admin_mutations_total",
	Help: "Backend mutations by resource, operation and result",
}, []string{"resource", "operation", "result"})

// ErrNotDeletable is returned for resources whose items cannot be deleted.
var ErrNotDeletable = errors.New("resource does not support delete")

// Backend is the part of the REST client the service uses.
type Backend interface {
	pagination.Getter
	Delete(ctx context.Context, path string) error
}

// Service runs admin operations against the backend.
type Service struct {
	backend Backend
	logger  zerolog.Logger
}

// NewService creates a service over backend.
func NewService(backend Backend) *Service {
	return &Service{
		backend: backend,
		logger:  log.With().Str("component", "admin").Logger(),
	}
}

// Records returns the list fetcher of r with untyped items.
func (s *Service) Records(r Resource) *pagination.Fetcher[Record] {
	return pagination.NewFetcherFunc(s.backend, r.Path, RecordDecoder(r.IDField))
}

// Delete deletes one item. A rejection by the backend surfaces as an
// application-class *client.APIError.
func (s *Service) Delete(ctx context.Context, r Resource, id string) error {
	if !r.Deletable {
		return fmt.Errorf("%s: %w", r.Name, ErrNotDeletable)
	}
	if id == "" {
		return fmt.Errorf("%s: empty item id", r.Name)
	}

	if err := s.backend.Delete(ctx, r.ItemPath(id)); err != nil {
		class := client.ClassOf(err)
		mutationsTotal.WithLabelValues(r.Name, "delete", string(class)).Inc()
		s.logger.Warn().
			Err(err).
			Str("resource", r.Name).
			Str("item_id", id).
			Str("error_class", string(class)).
			Msg("Delete failed")
		return err
	}

	mutationsTotal.WithLabelValues(r.Name, "delete", "ok").Inc()
	s.logger.Info().
		Str("resource", r.Name).
		Str("item_id", id).
		Msg("Item deleted")
	return nil
}

// Coupons fetches coupon pages through g.
func Coupons(g pagination.Getter) *pagination.Fetcher[Coupon] {
	return pagination.NewFetcher[Coupon](g, registry["coupons"].Path)
}

// Polls fetches poll pages through g.
func Polls(g pagination.Getter) *pagination.Fetcher[Poll] {
	return pagination.NewFetcher[Poll](g, registry["polls"].Path)
}

// StoreImages fetches store image pages through g.
func StoreImages(g pagination.Getter) *pagination.Fetcher[StoreImage] {
	return pagination.NewFetcher[StoreImage](g, registry["store-images"].Path)
}

// StoreMessages fetches store message pages through g.
func StoreMessages(g pagination.Getter) *pagination.Fetcher[StoreMessage] {
	return pagination.NewFetcher[StoreMessage](g, registry["store-messages"].Path)
}

// UserRankings fetches user ranking pages through g.
func UserRankings(g pagination.Getter) *pagination.Fetcher[UserRanking] {
	return pagination.NewFetcher[UserRanking](g, registry["user-rankings"].Path)
}

// Registrations fetches store registration pages through g.
func Registrations(g pagination.Getter) *pagination.Fetcher[Registration] {
	return pagination.NewFetcher[Registration](g, registry["registrations"].Path)
}
