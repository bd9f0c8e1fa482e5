package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vedfolnir/console/internal/constants"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const csrfCacheKey = "csrf_token"

// fetchFunc retrieves a fresh token from the server.
type fetchFunc func(ctx context.Context) (string, error)

// CSRFProvider caches the CSRF token and injects it into mutating
// requests. Concurrent refreshes are coalesced into a single in-flight
// request shared by all callers.
type CSRFProvider struct {
	cache  *gocache.Cache
	group  singleflight.Group
	fetch  fetchFunc
	logger *slog.Logger
}

// NewCSRFProvider creates a provider. A non-empty seed pre-populates the
// cache (the analog of a server-rendered page meta tag).
func NewCSRFProvider(seed string, ttl time.Duration, fetch fetchFunc, log *slog.Logger) *CSRFProvider {
	if ttl <= 0 {
		ttl = constants.CSRFTokenTTL
	}
	c := gocache.New(ttl, ttl/2)
	if seed != "" {
		c.Set(csrfCacheKey, seed, ttl)
	}
	return &CSRFProvider{
		cache:  c,
		fetch:  fetch,
		logger: log,
	}
}

// Token returns the cached token, refreshing from the server when the
// cache is empty or expired. It fails when no token can be obtained.
func (p *CSRFProvider) Token(ctx context.Context) (string, error) {
	if v, ok := p.cache.Get(csrfCacheKey); ok {
		return v.(string), nil
	}

	v, err, shared := p.group.Do(csrfCacheKey, func() (any, error) {
		// Re-check: another caller may have refreshed while we queued.
		if cached, ok := p.cache.Get(csrfCacheKey); ok {
			return cached, nil
		}
		token, fetchErr := p.fetch(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		if token == "" {
			return nil, fmt.Errorf("server returned an empty CSRF token")
		}
		p.cache.SetDefault(csrfCacheKey, token)
		return token, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to obtain CSRF token: %w", err)
	}

	p.logger.Debug("CSRF token resolved", "sharedRefresh", shared)
	return v.(string), nil
}

// Invalidate drops the cached token so the next caller refreshes it.
// Called after the server rejects a token as invalid or expired.
func (p *CSRFProvider) Invalidate() {
	p.cache.Delete(csrfCacheKey)
}

// Inject sets the CSRF header on a request. Safe verbs (GET, HEAD,
// OPTIONS) are left untouched.
func (p *CSRFProvider) Inject(req *http.Request) error {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return nil
	}

	token, err := p.Token(req.Context())
	if err != nil {
		return err
	}
	req.Header.Set(constants.CSRFTokenHeader, token)
	return nil
}
