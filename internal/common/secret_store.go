package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/patrickmn/go-cache"
)

// ErrSecretNotFound means a credential reference resolves to nothing.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore resolves a channel manager's credential_ref to its secret.
type SecretStore interface {
	Secret(ctx context.Context, ref string) (string, error)
}

// EnvSecretStore reads secrets from environment variables named
// <prefix><REF>, where REF is the reference upper-cased with every
// non-alphanumeric rune replaced by '_'.
type EnvSecretStore struct {
	prefix string
	lookup func(string) (string, bool)
}

func NewEnvSecretStore(prefix string) *EnvSecretStore {
	return &EnvSecretStore{prefix: prefix, lookup: os.LookupEnv}
}

// EnvKey returns the variable name a reference maps to.
func (s *EnvSecretStore) EnvKey(ref string) string {
	var b strings.Builder
	b.WriteString(s.prefix)
	for _, r := range strings.TrimSpace(ref) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (s *EnvSecretStore) Secret(_ context.Context, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("%w: empty credential reference", ErrSecretNotFound)
	}
	key := s.EnvKey(ref)
	value, ok := s.lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	return value, nil
}

// StaticSecretStore serves a fixed map. Used in tests and local setups.
type StaticSecretStore map[string]string

func (s StaticSecretStore) Secret(_ context.Context, ref string) (string, error) {
	value, ok := s[ref]
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, ref)
	}
	return value, nil
}

// CachedSecretStore memoizes hits from another store. Misses are not cached
// so a newly provisioned secret is picked up on the next attempt.
type CachedSecretStore struct {
	next  SecretStore
	cache *cache.Cache
}

func NewCachedSecretStore(next SecretStore, ttl time.Duration) *CachedSecretStore {
	return &CachedSecretStore{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (s *CachedSecretStore) Secret(ctx context.Context, ref string) (string, error) {
	if v, found := s.cache.Get(ref); found {
		return v.(string), nil
	}
	value, err := s.next.Secret(ctx, ref)
	if err != nil {
		return "", err
	}
	s.cache.SetDefault(ref, value)
	return value, nil
}

// Invalidate drops a cached secret after rotation.
func (s *CachedSecretStore) Invalidate(ref string) {
	s.cache.Delete(ref)
}
