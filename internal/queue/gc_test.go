package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubPurger struct {
	purged    int
	err       error
	retention time.Duration
}

func (s *stubPurger) PurgeOlderThan(_ context.Context, retention time.Duration) (int, error) {
	s.retention = retention
	return s.purged, s.err
}

func TestGarbageCollectorCollect(t *testing.T) {
	t.Parallel()

	purger := &stubPurger{purged: 3}
	gc := NewGarbageCollector(purger, time.Minute, 24*time.Hour, nil)

	if err := gc.collect(context.Background()); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if purger.retention != 24*time.Hour {
		t.Errorf("retention passed = %v, want 24h", purger.retention)
	}
}

func TestGarbageCollectorCollectNilPurger(t *testing.T) {
	t.Parallel()

	gc := NewGarbageCollector(nil, time.Minute, time.Hour, nil)
	if err := gc.collect(context.Background()); err != nil {
		t.Errorf("collect with nil purger: %v", err)
	}
}

func TestGarbageCollectorCollectError(t *testing.T) {
	t.Parallel()

	gc := NewGarbageCollector(&stubPurger{err: errors.New("channel gone")}, time.Minute, time.Hour, nil)
	if err := gc.collect(context.Background()); err == nil {
		t.Error("expected purge error to propagate")
	}
}

func TestGarbageCollectorStopsOnCancel(t *testing.T) {
	t.Parallel()

	gc := NewGarbageCollector(&stubPurger{}, 24*time.Hour, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gc.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start returned %v, want context.Canceled", err)
	}
}
