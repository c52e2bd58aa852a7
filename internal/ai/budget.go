package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrBudgetExceeded is returned when a user has spent their token budget.
var ErrBudgetExceeded = errors.New("AI token budget exceeded")

// BudgetChecker checks and records token usage against per-user budgets.
type BudgetChecker interface {
	// Check returns true if the user has budget remaining.
	Check(ctx context.Context, userID string) (bool, error)
	// Record records token usage for a user.
	Record(ctx context.Context, userID string, tokens int) error
	// Usage returns current usage for a user. A zero budget means unlimited.
	Usage(ctx context.Context, userID string) (used int64, budget int64, err error)
}

// InMemoryBudget is a process-local budget tracker for development and tests.
type InMemoryBudget struct {
	mu      sync.RWMutex
	limit   int64            // default limit for every user, 0 = unlimited
	budgets map[string]int64 // per-user overrides
	usage   map[string]int64
}

// NewInMemoryBudget creates a tracker where every user gets limit tokens.
func NewInMemoryBudget(limit int64) *InMemoryBudget {
	return &InMemoryBudget{
		limit:   limit,
		budgets: make(map[string]int64),
		usage:   make(map[string]int64),
	}
}

// SetBudget overrides the token budget for one user.
func (b *InMemoryBudget) SetBudget(userID string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgets[userID] = tokens
}

func (b *InMemoryBudget) Check(_ context.Context, userID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	budget := b.budgetFor(userID)
	if budget == 0 {
		return true, nil
	}
	return b.usage[userID] < budget, nil
}

func (b *InMemoryBudget) Record(_ context.Context, userID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[userID] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(_ context.Context, userID string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[userID], b.budgetFor(userID), nil
}

func (b *InMemoryBudget) budgetFor(userID string) int64 {
	if v, ok := b.budgets[userID]; ok {
		return v
	}
	return b.limit
}

// Counter is the shared counter store behind RedisBudget. cache.Cache
// implements it on Redis/Dragonfly.
type Counter interface {
	// IncrBy adds n to key, refreshes its ttl and returns the new value.
	IncrBy(ctx context.Context, key string, n int64, ttl time.Duration) (int64, error)
	// Int returns the value at key, or 0 when the key does not exist.
	Int(ctx context.Context, key string) (int64, error)
}

// RedisBudget tracks daily per-user usage in Redis/Dragonfly so the limit
// holds across server replicas.
type RedisBudget struct {
	counter Counter
	limit   int64
	now     func() time.Time
}

// NewRedisBudget creates a shared tracker with a daily limit per user.
func NewRedisBudget(counter Counter, dailyLimit int64) *RedisBudget {
	return &RedisBudget{counter: counter, limit: dailyLimit, now: time.Now}
}

func (b *RedisBudget) key(userID string) string {
	return "budget:" + b.now().UTC().Format("20060102") + ":" + userID
}

func (b *RedisBudget) Check(ctx context.Context, userID string) (bool, error) {
	if b.limit == 0 {
		return true, nil
	}
	used, err := b.counter.Int(ctx, b.key(userID))
	if err != nil {
		return false, fmt.Errorf("read usage: %w", err)
	}
	return used < b.limit, nil
}

func (b *RedisBudget) Record(ctx context.Context, userID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}
	if _, err := b.counter.IncrBy(ctx, b.key(userID), int64(tokens), 48*time.Hour); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func (b *RedisBudget) Usage(ctx context.Context, userID string) (int64, int64, error) {
	used, err := b.counter.Int(ctx, b.key(userID))
	if err != nil {
		return 0, b.limit, fmt.Errorf("read usage: %w", err)
	}
	return used, b.limit, nil
}

type userKey struct{}

// WithUser tags ctx with the user a completion is made on behalf of.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the user set by WithUser.
func UserFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}

// Metered enforces a BudgetChecker in front of a Completer. Requests without
// a user in the context pass through unmetered.
type Metered struct {
	next   Completer
	budget BudgetChecker
}

// NewMetered wraps next with budget enforcement.
func NewMetered(next Completer, budget BudgetChecker) *Metered {
	return &Metered{next: next, budget: budget}
}

func (m *Metered) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	userID, ok := UserFrom(ctx)
	if !ok || m.budget == nil {
		return m.next.Complete(ctx, req)
	}

	allowed, err := m.budget.Check(ctx, userID)
	if err != nil {
		// An unreachable budget store must not take generation down with it.
		slog.Warn("budget check failed, allowing request", "user_id", userID, "error", err)
	} else if !allowed {
		return CompletionResponse{}, ErrBudgetExceeded
	}

	resp, err := m.next.Complete(ctx, req)
	if err != nil {
		return resp, err
	}
	if err := m.budget.Record(ctx, userID, resp.TotalTokens()); err != nil {
		slog.Warn("failed to record token usage", "user_id", userID, "error", err)
	}
	return resp, nil
}
