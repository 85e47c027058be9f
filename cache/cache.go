// Package cache manages the lifetime of the project model. One model
// serves all requests until its TTL passes, then the next acquisition
// rebuilds it from disk.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"codegate/model"
)

// DefaultTTL is how long a model stays live before the next acquisition
// rebuilds it.
const DefaultTTL = 5 * time.Minute

// Options configures a Manager.
type Options struct {
	// Manifest is the path to the project's go.mod.
	Manifest string

	// TTL overrides DefaultTTL when positive.
	TTL time.Duration

	Logger *slog.Logger

	// Now is the clock. Tests substitute it; nil means time.Now.
	Now func() time.Time
}

// Stats counts cache activity since the Manager was created.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Rebuilds int64 `json:"rebuilds"`
}

// Manager holds at most one model at a time. Acquire hands the same
// model to every caller within the TTL window; after expiry the next
// caller pays for the rebuild while others wait on the lock.
type Manager struct {
	opts Options

	mu        sync.Mutex
	current   *model.Model
	createdAt time.Time
	stats     Stats
}

// New returns a Manager. No model is built until the first Acquire.
func New(opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{opts: opts}
}

// Acquire returns the live model, rebuilding it when none exists or the
// TTL has passed. A failed rebuild installs nothing: the next call
// retries from scratch.
func (c *Manager) Acquire() (*model.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()
	if c.current != nil && now.Sub(c.createdAt) < c.opts.TTL {
		c.stats.Hits++
		return c.current, nil
	}

	c.stats.Misses++
	c.opts.Logger.Info("cache miss, rebuilding project model",
		"manifest", c.opts.Manifest,
		"had_model", c.current != nil)

	m, err := model.Load(c.opts.Manifest)
	if err != nil {
		return nil, err
	}
	c.current = m
	c.createdAt = now
	c.stats.Rebuilds++
	c.opts.Logger.Info("project model ready", "files", m.FileCount())
	return m, nil
}

// Invalidate drops the current model so the next Acquire rebuilds.
func (c *Manager) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// Stats returns a snapshot of the counters.
func (c *Manager) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
