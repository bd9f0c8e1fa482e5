package faults

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultRecoveryAttempts caps automatic recovery rounds per category
// before manual recovery is required.
const DefaultRecoveryAttempts = 3

// ErrRecoveryExhausted is returned when every strategy for a category
// failed or the attempt cap was reached. The caller must present
// manual-recovery UI.
var ErrRecoveryExhausted = errors.New("automatic recovery exhausted")

// StrategyFunc performs one named recovery action. A nil return means
// the strategy succeeded and recovery stops.
type StrategyFunc func(ctx context.Context) error

// Result reports the outcome of a recovery attempt.
type Result struct {
	// Recovered is true when some strategy succeeded.
	Recovered bool
	// Strategy is the name of the succeeding strategy.
	Strategy string
	// Skipped is true when a recovery was already in progress and this
	// request was ignored (single-flight).
	Skipped bool
}

// Recoverer runs a category's recovery strategies in order, stopping at
// the first success. Concurrent attempts are ignored while one is in
// progress, and a per-category attempt counter guards against unbounded
// recursive recovery.
type Recoverer struct {
	mu          sync.Mutex
	inProgress  bool
	attempts    map[Category]int
	maxAttempts int
	strategies  map[string]StrategyFunc
	logger      *slog.Logger
}

// NewRecoverer creates a recoverer with the given attempt cap (<=0 uses
// the default).
func NewRecoverer(maxAttempts int, log *slog.Logger) *Recoverer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultRecoveryAttempts
	}
	return &Recoverer{
		attempts:    make(map[Category]int),
		maxAttempts: maxAttempts,
		strategies:  make(map[string]StrategyFunc),
		logger:      log,
	}
}

// Register binds a strategy name to its implementation. Strategies are
// provided by the owning components (realtime wrapper, session sync).
func (r *Recoverer) Register(name string, fn StrategyFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = fn
}

// Attempt runs the category's strategies in order, awaiting each, and
// stops at the first success.
func (r *Recoverer) Attempt(ctx context.Context, cat Category) (Result, error) {
	r.mu.Lock()
	if r.inProgress {
		r.mu.Unlock()
		r.logger.Debug("recovery already in progress, ignoring request", "category", cat)
		return Result{Skipped: true}, nil
	}
	if r.attempts[cat] >= r.maxAttempts {
		r.mu.Unlock()
		return Result{}, fmt.Errorf("category %s: %w", cat, ErrRecoveryExhausted)
	}
	r.inProgress = true
	r.attempts[cat]++
	attempt := r.attempts[cat]
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inProgress = false
		r.mu.Unlock()
	}()

	profile := ProfileFor(cat)
	r.logger.Info("attempting recovery",
		"category", cat, "attempt", attempt, "strategies", profile.Strategies)

	var lastErr error
	for _, name := range profile.Strategies {
		r.mu.Lock()
		fn, ok := r.strategies[name]
		r.mu.Unlock()
		if !ok {
			r.logger.Debug("recovery strategy not registered, skipping", "strategy", name)
			continue
		}

		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if err := fn(ctx); err != nil {
			r.logger.Warn("recovery strategy failed", "strategy", name, "error", err)
			lastErr = err
			continue
		}

		r.logger.Info("recovery succeeded", "strategy", name, "category", cat)
		r.mu.Lock()
		r.attempts[cat] = 0
		r.mu.Unlock()
		return Result{Recovered: true, Strategy: name}, nil
	}

	if lastErr != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRecoveryExhausted, lastErr)
	}
	return Result{}, ErrRecoveryExhausted
}

// Reset clears the attempt counter for a category, e.g. after a manual
// user-initiated retry.
func (r *Recoverer) Reset(cat Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[cat] = 0
}
