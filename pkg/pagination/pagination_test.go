package pagination

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	w := Window{}.Normalize()
	if w.PageSize != DefaultPageSize || w.MaxRows != DefaultMaxRows {
		t.Fatalf("unexpected defaults %+v", w)
	}
	w = Window{PageSize: 500, MaxRows: 100}.Normalize()
	if w.PageSize != 100 {
		t.Fatalf("expected page capped to ceiling, got %d", w.PageSize)
	}
}

func TestWalkStopsOnShortPage(t *testing.T) {
	rows := 25
	var offsets []int
	total, err := Walk(context.Background(), Window{PageSize: 10, MaxRows: 100}, func(ctx context.Context, offset, limit int) (int, error) {
		offsets = append(offsets, offset)
		n := rows - offset
		if n > limit {
			n = limit
		}
		return n, nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if total != 25 {
		t.Fatalf("expected 25 rows, got %d", total)
	}
	if len(offsets) != 3 || offsets[2] != 20 {
		t.Fatalf("unexpected offsets %v", offsets)
	}
}

func TestWalkStopsAtCeiling(t *testing.T) {
	var limits []int
	total, err := Walk(context.Background(), Window{PageSize: 10, MaxRows: 25}, func(ctx context.Context, offset, limit int) (int, error) {
		limits = append(limits, limit)
		return limit, nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if total != 25 {
		t.Fatalf("expected walk capped at 25, got %d", total)
	}
	if limits[len(limits)-1] != 5 {
		t.Fatalf("expected last page trimmed to 5, got %v", limits)
	}
}

func TestWalkExactMultipleEndsWithEmptyPage(t *testing.T) {
	calls := 0
	total, err := Walk(context.Background(), Window{PageSize: 10, MaxRows: 100}, func(ctx context.Context, offset, limit int) (int, error) {
		calls++
		if offset >= 20 {
			return 0, nil
		}
		return limit, nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if total != 20 || calls != 3 {
		t.Fatalf("expected 20 rows in 3 calls, got %d rows in %d calls", total, calls)
	}
}

func TestWalkPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Walk(context.Background(), Window{PageSize: 10}, func(ctx context.Context, offset, limit int) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Walk(ctx, Window{}, func(ctx context.Context, offset, limit int) (int, error) {
		t.Fatal("fetch should not run on a cancelled context")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancelled, got %v", err)
	}
}
