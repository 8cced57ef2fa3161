package join

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"melanox-backend/internal/shared/telemetry"
)

// ErrNotFound signals a missing relation row, as opposed to a fetch failure.
// Both are tolerated per record; the distinction only affects logging.
var ErrNotFound = errors.New("relation not found")

// defaultConcurrency caps in-flight relation fetches per batch.
const defaultConcurrency = 8

// Joined pairs a primary record with its client-side attached relation.
// Relation is nil when the primary record has no key or the related row
// is missing.
type Joined[P, R any] struct {
	Record   P
	Relation *R
}

// FetchRelated loads one related record by key.
type FetchRelated[R any] func(ctx context.Context, key string) (R, error)

// WithJoin attaches a related record to every primary record whose keyOf
// is non-empty. Relation fetches run concurrently but the result preserves
// the order of primary. A missing or failing relation never fails the
// batch; the record is kept with a nil relation.
func WithJoin[P, R any](ctx context.Context, primary []P, keyOf func(P) string, fetch FetchRelated[R]) ([]Joined[P, R], error) {
	joined := make([]Joined[P, R], len(primary))
	for i, rec := range primary {
		joined[i] = Joined[P, R]{Record: rec}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultConcurrency)

	for i := range primary {
		key := keyOf(primary[i])
		if key == "" {
			continue
		}
		i := i
		g.Go(func() error {
			rel, err := fetch(gctx, key)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if !errors.Is(err, ErrNotFound) {
					telemetry.Warn("join.relation_fetch_failed", map[string]any{
						"key":   key,
						"error": err.Error(),
					})
				}
				return nil
			}
			joined[i].Relation = &rel
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return joined, nil
}
