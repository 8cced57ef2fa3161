package trial

import (
	"context"
	"sync"

	"melanox-backend/internal/shared/telemetry"
)

// FreeLimit is the number of analyses an anonymous visitor gets before
// a login is required.
const FreeLimit = 1

// Actor identifies who is invoking a gated action. Guest actors are
// anonymous visitors tracked by a client-generated key.
type Actor struct {
	ID    string
	Email string
	Guest bool
}

// Store persists per-guest trial counters.
type Store interface {
	Read(ctx context.Context, guestID string) (int, error)
	Write(ctx context.Context, guestID string, count int) error
	Clear(ctx context.Context, guestID string) error
}

// Gate enforces the single free anonymous analysis rule. Authenticated
// actors always pass and never touch the counter.
type Gate struct {
	store Store

	mu       sync.Mutex
	fallback map[string]int
	degraded map[string]bool
	prompts  map[string]bool
}

// NewGate constructs a Gate backed by the given store.
func NewGate(store Store) *Gate {
	return &Gate{
		store:    store,
		fallback: make(map[string]int),
		degraded: make(map[string]bool),
		prompts:  make(map[string]bool),
	}
}

// CanInvoke reports whether the actor may run an analysis.
func (g *Gate) CanInvoke(ctx context.Context, actor Actor) bool {
	if !actor.Guest {
		return true
	}
	return g.count(ctx, actor.ID) < FreeLimit
}

// RecordInvocation counts one analysis against a guest actor. It is a
// no-op for authenticated actors. The counter is read, incremented and
// written back within this call; a failing store degrades to in-memory
// tracking for the rest of the session instead of granting unlimited
// access.
func (g *Gate) RecordInvocation(ctx context.Context, actor Actor) {
	if !actor.Guest {
		return
	}

	count := g.count(ctx, actor.ID) + 1

	if err := g.store.Write(ctx, actor.ID, count); err != nil {
		telemetry.Warn("trial.store_write_failed", map[string]any{
			"guest_id": actor.ID,
			"error":    err.Error(),
		})
		g.mu.Lock()
		g.degraded[actor.ID] = true
		g.mu.Unlock()
	}

	g.mu.Lock()
	g.fallback[actor.ID] = count
	if count >= FreeLimit {
		g.prompts[actor.ID] = true
	}
	g.mu.Unlock()
}

// Reset clears the guest's counter and any pending login prompt. Called
// after a successful login and from the explicit reset endpoint.
func (g *Gate) Reset(ctx context.Context, guestID string) {
	if err := g.store.Clear(ctx, guestID); err != nil {
		telemetry.Warn("trial.store_clear_failed", map[string]any{
			"guest_id": guestID,
			"error":    err.Error(),
		})
	}
	g.mu.Lock()
	delete(g.fallback, guestID)
	delete(g.degraded, guestID)
	delete(g.prompts, guestID)
	g.mu.Unlock()
}

// ConsumePrompt reads and clears the one-shot login prompt flag for a
// guest, so the client shows the login modal exactly once.
func (g *Gate) ConsumePrompt(guestID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	pending := g.prompts[guestID]
	delete(g.prompts, guestID)
	return pending
}

// Usage returns the guest's current counter and limit for display.
func (g *Gate) Usage(ctx context.Context, actor Actor) (used, limit int) {
	if !actor.Guest {
		return 0, 0
	}
	return g.count(ctx, actor.ID), FreeLimit
}

func (g *Gate) count(ctx context.Context, guestID string) int {
	g.mu.Lock()
	if g.degraded[guestID] {
		count := g.fallback[guestID]
		g.mu.Unlock()
		return count
	}
	g.mu.Unlock()

	count, err := g.store.Read(ctx, guestID)
	if err != nil {
		telemetry.Warn("trial.store_read_failed", map[string]any{
			"guest_id": guestID,
			"error":    err.Error(),
		})
		g.mu.Lock()
		g.degraded[guestID] = true
		count = g.fallback[guestID]
		g.mu.Unlock()
	}
	return count
}
