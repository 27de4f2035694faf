package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/threedollars/admin-console/pkg/client"
)

// Prometheus metrics for session tracking.
var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_sessions_created_total",
		Help: "Total number of console sessions created",
	})

	sessionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_sessions_rejected_total",
		Help: "Tokens rejected at sign-in by reason",
	}, []string{"reason"})

	sessionLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_session_lookups_total",
		Help: "Session lookups by result",
	}, []string{"result"})
)

// Store keeps sessions in Redis with a TTL matching the token lifetime.
type Store struct {
	redis      *redis.Client
	logger     zerolog.Logger
	defaultTTL time.Duration
	now        func() time.Time
}

// NewStore creates a session store. A non-positive defaultTTL selects
// DefaultTTL.
func NewStore(redisClient *redis.Client, logger zerolog.Logger, defaultTTL time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Store{
		redis:      redisClient,
		logger:     logger,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Create stores token under a new session id.
func (s *Store) Create(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		sessionsRejectedTotal.WithLabelValues("blank").Inc()
		return nil, ErrInvalidToken
	}

	now := s.now()
	expiresAt, operator, err := expiry(token, now, s.defaultTTL)
	if err != nil {
		sessionsRejectedTotal.WithLabelValues("expired").Inc()
		s.logger.Warn().Err(err).Msg("Sign-in rejected")
		return nil, err
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		Operator:  operator,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, RedisKeyPrefix+sess.ID, data, expiresAt.Sub(now)).Err(); err != nil {
		return nil, fmt.Errorf("store session in redis: %w", err)
	}

	sessionsCreatedTotal.Inc()
	s.logger.Info().
		Str("session_id", sess.ID).
		Str("operator", operator).
		Time("expires_at", expiresAt).
		Msg("Session created")

	return sess, nil
}

// Get loads a session. Unknown and expired ids yield ErrSessionNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		sessionLookupsTotal.WithLabelValues("missing").Inc()
		return nil, ErrSessionNotFound
	}

	data, err := s.redis.Get(ctx, RedisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		sessionLookupsTotal.WithLabelValues("missing").Inc()
		return nil, ErrSessionNotFound
	}
	if err != nil {
		sessionLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		sessionLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.IsExpired(s.now()) {
		sessionLookupsTotal.WithLabelValues("expired").Inc()
		return nil, ErrSessionNotFound
	}

	sessionLookupsTotal.WithLabelValues("hit").Inc()
	return &sess, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, RedisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info().Str("session_id", id).Msg("Session deleted")
	return nil
}

// TokenSource resolves the bearer token of session id on every request, so
// a signed-out session stops authenticating immediately.
func (s *Store) TokenSource(id string) client.TokenSource {
	return client.TokenFunc(func(ctx context.Context) (string, error) {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			return "", client.ErrNoToken
		}
		if err != nil {
			return "", err
		}
		return sess.Token, nil
	})
}

// expiry derives the session lifetime from the token. JWTs are read
// without verification: the backend verifies them, the console only needs
// exp and sub. Opaque tokens get defaultTTL.
func expiry(token string, now time.Time, defaultTTL time.Duration) (time.Time, string, error) {
	limit := now.Add(defaultTTL)

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return limit, "", nil
	}

	if claims.ExpiresAt == nil {
		return limit, claims.Subject, nil
	}
	exp := claims.ExpiresAt.Time
	if exp.Sub(now) < MinRemaining {
		return time.Time{}, "", fmt.Errorf("%w at %s", ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	}
	if exp.After(limit) {
		exp = limit
	}
	return exp, claims.Subject, nil
}
