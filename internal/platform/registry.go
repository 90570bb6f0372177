package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Fetcher is the capability a marketing platform integration provides:
// pulling historical spend/conversion reports with an already-exchanged
// access token. Implementations are selected from the registry by platform
// id; there is no platform base type to inherit from.
type Fetcher interface {
	Platform() string
	FetchHistoricalData(ctx context.Context, accessToken string, from, to time.Time) ([]domain.SpendRecord, error)
}

// Registry is a lookup table of platform fetchers keyed on platform id.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRegistry creates an empty platform registry
func NewRegistry() *Registry {
	return &Registry{
		fetchers: make(map[string]Fetcher),
	}
}

// Register adds a fetcher under its platform id, replacing any previous one.
func (r *Registry) Register(f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[f.Platform()] = f
}

// Lookup returns the fetcher for a platform id.
func (r *Registry) Lookup(platform string) (Fetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.fetchers[platform]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for platform %q", platform)
	}
	return f, nil
}

// Platforms lists the registered platform ids.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]string, 0, len(r.fetchers))
	for p := range r.fetchers {
		platforms = append(platforms, p)
	}
	return platforms
}
