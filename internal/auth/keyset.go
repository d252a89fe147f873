package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"golang.org/x/sync/singleflight"
)

// KeySetFetcher returns the identity provider's current signing keys.
type KeySetFetcher interface {
	Fetch(ctx context.Context) (jwk.Set, error)
}

// KeySetRefresher is implemented by fetchers that serve keys from memory
// and can be forced to reload them, e.g. after a key rotation.
type KeySetRefresher interface {
	Refresh(ctx context.Context) (jwk.Set, error)
}

// RemoteKeySet downloads the key set on every call. Nothing is cached and
// failures are not retried.
type RemoteKeySet struct {
	url    string
	client *http.Client
}

// NewRemoteKeySet creates a fetcher for the key set published at url.
// If client is nil, http.DefaultClient is used.
func NewRemoteKeySet(url string, client *http.Client) *RemoteKeySet {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteKeySet{url: url, client: client}
}

// Fetch performs one GET against the key set URL and parses the response.
func (r *RemoteKeySet) Fetch(ctx context.Context) (jwk.Set, error) {
	set, err := jwk.Fetch(ctx, r.url, jwk.WithHTTPClient(r.client))
	if err != nil {
		return nil, fmt.Errorf("fetch jwks from %s: %w", r.url, err)
	}
	return set, nil
}

// CachedKeySet keeps the key set in a jwk.Cache that refreshes in the background.
// Concurrent forced refreshes are collapsed into a single request, and at most
// one forced refresh reaches the identity provider per minRefresh interval.
type CachedKeySet struct {
	cache      *jwk.Cache
	url        string
	group      singleflight.Group
	minRefresh time.Duration

	mu          sync.Mutex
	lastRefresh time.Time
}

// NewCachedKeySet registers url with a new jwk.Cache and performs the initial fetch.
// The ctx controls the lifecycle of the background refresh goroutine.
// A zero minRefresh lets every Refresh call go upstream.
func NewCachedKeySet(ctx context.Context, url string, client *http.Client, minRefresh time.Duration) (*CachedKeySet, error) {
	if client == nil {
		client = http.DefaultClient
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient(
		httprc.WithHTTPClient(client),
	))
	if err != nil {
		return nil, fmt.Errorf("create jwk cache: %w", err)
	}

	if err := cache.Register(ctx, url); err != nil {
		return nil, fmt.Errorf("register jwks url %s: %w", url, err)
	}

	if _, err := cache.Lookup(ctx, url); err != nil {
		return nil, fmt.Errorf("initial jwks fetch from %s: %w", url, err)
	}

	return &CachedKeySet{cache: cache, url: url, minRefresh: minRefresh}, nil
}

// Fetch returns the cached key set.
func (c *CachedKeySet) Fetch(ctx context.Context) (jwk.Set, error) {
	set, err := c.cache.Lookup(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("lookup jwks %s: %w", c.url, err)
	}
	return set, nil
}

// Refresh reloads the key set from the identity provider. Within minRefresh
// of the previous reload the cached set is returned instead, so tokens with
// unknown key IDs cannot drive traffic to the identity provider.
func (c *CachedKeySet) Refresh(ctx context.Context) (jwk.Set, error) {
	if !c.claimRefresh(time.Now()) {
		return c.Fetch(ctx)
	}
	v, err, _ := c.group.Do(c.url, func() (any, error) {
		return c.cache.Refresh(ctx, c.url)
	})
	if err != nil {
		return nil, fmt.Errorf("refresh jwks %s: %w", c.url, err)
	}
	return v.(jwk.Set), nil
}

// claimRefresh reports whether a forced reload may go upstream at now and,
// if so, records it.
func (c *CachedKeySet) claimRefresh(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastRefresh.IsZero() && now.Sub(c.lastRefresh) < c.minRefresh {
		return false
	}
	c.lastRefresh = now
	return true
}

// NewKeySetFetcher builds the fetcher selected by cfg.
func NewKeySetFetcher(ctx context.Context, cfg Config) (KeySetFetcher, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.CacheKeys {
		return NewCachedKeySet(ctx, cfg.KeySetURL(), client, cfg.MinRefreshInterval)
	}
	return NewRemoteKeySet(cfg.KeySetURL(), client), nil
}

var (
	_ KeySetFetcher   = (*RemoteKeySet)(nil)
	_ KeySetFetcher   = (*CachedKeySet)(nil)
	_ KeySetRefresher = (*CachedKeySet)(nil)
)
