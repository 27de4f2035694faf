//go:build integration

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestStore_Integration_JWTLifetime(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewStore(redisClient, zerolog.Nop(), 12*time.Hour)
	ctx := context.Background()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin-3",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(2*time.Second + MinRemaining)),
	}).SignedString([]byte("integration"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	sess, err := store.Create(ctx, token)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.Operator != "admin-3" {
		t.Errorf("Operator = %q, want admin-3", sess.Operator)
	}

	ttl, err := redisClient.TTL(ctx, RedisKeyPrefix+sess.ID).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl > MinRemaining+3*time.Second {
		t.Errorf("redis TTL = %v, want bounded by the token exp", ttl)
	}
}

func TestStore_Integration_SessionsAreIsolated(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewStore(redisClient, zerolog.Nop(), time.Hour)
	ctx := context.Background()

	a, err := store.Create(ctx, "token-a")
	if err != nil {
		t.Fatalf("Create(a) error = %v", err)
	}
	b, err := store.Create(ctx, "token-b")
	if err != nil {
		t.Fatalf("Create(b) error = %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("session ids collide")
	}

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, a.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(a) = %v, want ErrSessionNotFound", err)
	}

	tok, err := store.TokenSource(b.ID).Token(ctx)
	if err != nil || tok != "token-b" {
		t.Errorf("Token(b) = %q, %v", tok, err)
	}
}
