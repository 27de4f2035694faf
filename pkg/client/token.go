package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// TokenSource supplies the bearer token attached to backend requests.
// Refresh and expiry belong to the auth backend, not to the client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns the token or ErrNoToken when it is blank.
func (s StaticToken) Token(context.Context) (string, error) {
	tok := strings.TrimSpace(string(s))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// tokenScope fingerprints a token so cached responses are never shared
// between operators.
func tokenScope(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
