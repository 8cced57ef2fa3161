package join

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type primaryRec struct {
	ID    string
	RelID string
}

type relatedRec struct {
	ID string
}

func TestWithJoinPreservesOrderAndLength(t *testing.T) {
	primary := []primaryRec{
		{ID: "1", RelID: "a"},
		{ID: "2", RelID: ""},
		{ID: "3", RelID: "missing"},
	}

	fetch := func(ctx context.Context, key string) (relatedRec, error) {
		if key == "a" {
			return relatedRec{ID: "a"}, nil
		}
		return relatedRec{}, ErrNotFound
	}

	joined, err := WithJoin(context.Background(), primary, func(p primaryRec) string { return p.RelID }, fetch)
	if err != nil {
		t.Fatalf("WithJoin: %v", err)
	}

	if len(joined) != len(primary) {
		t.Fatalf("expected %d records, got %d", len(primary), len(joined))
	}
	for i := range primary {
		if joined[i].Record.ID != primary[i].ID {
			t.Fatalf("order broken at %d: got %s, want %s", i, joined[i].Record.ID, primary[i].ID)
		}
	}
	if joined[0].Relation == nil || joined[0].Relation.ID != "a" {
		t.Fatalf("expected relation attached to first record")
	}
	if joined[1].Relation != nil {
		t.Fatalf("expected nil relation for empty key")
	}
	if joined[2].Relation != nil {
		t.Fatalf("expected nil relation for missing row")
	}
}

func TestWithJoinToleratesFetchFailures(t *testing.T) {
	primary := []primaryRec{
		{ID: "1", RelID: "x"},
		{ID: "2", RelID: "y"},
	}

	fetch := func(ctx context.Context, key string) (relatedRec, error) {
		return relatedRec{}, errors.New("store unavailable")
	}

	joined, err := WithJoin(context.Background(), primary, func(p primaryRec) string { return p.RelID }, fetch)
	if err != nil {
		t.Fatalf("WithJoin: %v", err)
	}
	if len(joined) != 2 {
		t.Fatalf("expected 2 records, got %d", len(joined))
	}
	for i, j := range joined {
		if j.Relation != nil {
			t.Fatalf("expected nil relation at %d", i)
		}
	}
}

func TestWithJoinOrderIndependentOfCompletion(t *testing.T) {
	primary := make([]primaryRec, 20)
	for i := range primary {
		primary[i] = primaryRec{ID: string(rune('a' + i)), RelID: string(rune('a' + i))}
	}

	var calls atomic.Int32
	fetch := func(ctx context.Context, key string) (relatedRec, error) {
		// Later keys resolve faster than earlier ones.
		if calls.Add(1)%2 == 0 {
			time.Sleep(2 * time.Millisecond)
		}
		return relatedRec{ID: key}, nil
	}

	joined, err := WithJoin(context.Background(), primary, func(p primaryRec) string { return p.RelID }, fetch)
	if err != nil {
		t.Fatalf("WithJoin: %v", err)
	}
	for i := range primary {
		if joined[i].Relation == nil || joined[i].Relation.ID != primary[i].RelID {
			t.Fatalf("relation mismatch at %d", i)
		}
	}
}

func TestWithJoinHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := []primaryRec{{ID: "1", RelID: "a"}}
	fetch := func(ctx context.Context, key string) (relatedRec, error) {
		return relatedRec{}, ctx.Err()
	}

	if _, err := WithJoin(ctx, primary, func(p primaryRec) string { return p.RelID }, fetch); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
