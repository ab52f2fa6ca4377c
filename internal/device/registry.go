package device

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Defaults used when RegistryConfig fields are zero.
const (
	DefaultHistoryLength      = 10
	DefaultRefreshProbability = 0.05
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// RegistryConfig tunes discovery history behaviour.
type RegistryConfig struct {
	// HistoryLength is the number of discovery results kept.
	HistoryLength int

	// RefreshProbability is the per-call chance of rediscovering once the
	// history is full. Zero means never rediscover after filling up.
	RefreshProbability float64
}

// Registry merges recent discovery results into a stable view of switches.
//
// Network discovery is flaky: a switch that answered a minute ago may miss
// the next search. The registry keeps the last HistoryLength results and
// exposes their union, so a switch only disappears after it has been absent
// from every retained result.
//
// All public methods are thread-safe.
type Registry struct {
	dir         Directory
	capacity    int
	probability float64
	random      func() float64

	mu      sync.Mutex
	history [][]Switch // newest first

	logger Logger
}

// NewRegistry creates a new registry discovering through dir.
func NewRegistry(dir Directory, cfg RegistryConfig) *Registry {
	if cfg.HistoryLength < 1 {
		cfg.HistoryLength = DefaultHistoryLength
	}
	return &Registry{
		dir:         dir,
		capacity:    cfg.HistoryLength,
		probability: cfg.RefreshProbability,
		random:      rand.Float64,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetRandom replaces the source used for the refresh coin toss.
// It must return values in [0, 1).
func (r *Registry) SetRandom(random func() float64) {
	r.random = random
}

// Refresh runs discovery when the history is not yet full, or with the
// configured probability once it is.
//
// A successful result, even an empty one, becomes the newest history entry
// and the oldest entry beyond capacity is dropped. A failed discovery leaves
// the history untouched; the error is logged and returned wrapped in
// ErrDiscoveryFailed for reporting, and callers carry on with Snapshot.
//
// Returns:
//   - bool: true if discovery ran and succeeded
//   - error: discovery failure, or nil
func (r *Registry) Refresh(ctx context.Context) (bool, error) {
	if !r.shouldRefresh() {
		return false, nil
	}

	found, err := r.dir.Discover(ctx)
	if err != nil {
		r.logger.Warn("switch discovery failed, keeping previous results", "error", err)
		return false, fmt.Errorf("%w: %w", ErrDiscoveryFailed, err)
	}

	entry := make([]Switch, len(found))
	copy(entry, found)

	r.mu.Lock()
	r.history = append([][]Switch{entry}, r.history...)
	if len(r.history) > r.capacity {
		r.history = r.history[:r.capacity]
	}
	depth := len(r.history)
	r.mu.Unlock()

	r.logger.Debug("switch discovery complete", "found", len(found), "history", depth)
	return true, nil
}

func (r *Registry) shouldRefresh() bool {
	r.mu.Lock()
	full := len(r.history) >= r.capacity
	r.mu.Unlock()

	if !full {
		return true
	}
	return r.random() < r.probability
}

// Snapshot returns every switch present in any retained discovery result,
// deduplicated by address. Where an address appears more than once the
// instance from the most recent result wins.
func (r *Registry) Snapshot() []Switch {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	var out []Switch
	for _, entry := range r.history {
		for _, sw := range entry {
			if _, ok := seen[sw.Address()]; ok {
				continue
			}
			seen[sw.Address()] = struct{}{}
			out = append(out, sw)
		}
	}
	return out
}

// HistoryLen returns the number of retained discovery results.
func (r *Registry) HistoryLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}
