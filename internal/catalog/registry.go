package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"voice-cart/internal/domain"
)

// Registry serves a catalog loaded from a YAML file and can reload it while
// the service is running. A failed reload keeps the previous catalog.
type Registry struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current *Catalog
}

// NewRegistry loads path, or the built-in catalog when path is empty.
func NewRegistry(path string, logger *slog.Logger) (*Registry, error) {
	r := &Registry{path: path, logger: logger}
	if err := r.Sync(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Sync() error {
	loaded, err := LoadFile(r.path)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	r.mu.Lock()
	r.current = loaded
	r.mu.Unlock()

	r.logger.Info("catalog synced", "path", r.path, "products", len(loaded.products))
	return nil
}

func (r *Registry) catalog() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Registry) Find(name string) (domain.Product, bool) {
	return r.catalog().Find(name)
}

func (r *Registry) Products() []domain.Product {
	return r.catalog().Products()
}

func (r *Registry) Names() []string {
	return r.catalog().Names()
}

func (r *Registry) Summary() string {
	return r.catalog().Summary()
}

// StartPeriodicSync reloads the file every interval until ctx ends. It is a
// no-op for the built-in catalog.
func (r *Registry) StartPeriodicSync(ctx context.Context, interval time.Duration) {
	if r.path == "" || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Sync(); err != nil {
					r.logger.Error("periodic catalog sync failed", "error", err)
				}
			}
		}
	}()
}
