package gmailapi

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketAllowsBurst(t *testing.T) {
	tb := NewTokenBucket(1, 3)
	defer tb.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := tb.Take(ctx); err != nil {
			t.Fatalf("burst take %d: %v", i, err)
		}
	}
}

func TestTokenBucketBlocksWhenDrained(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	defer tb.Stop()

	ctx := context.Background()
	if err := tb.Take(ctx); err != nil {
		t.Fatalf("initial take: %v", err)
	}

	// Drained bucket: a short-deadline take must fail with Cancelled.
	shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := tb.Take(shortCtx)
	if err == nil {
		t.Fatal("take on drained bucket should block until deadline")
	}
	if KindOf(err) != KindCancelled {
		t.Errorf("error kind = %q, want Cancelled", KindOf(err))
	}
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(50, 1)
	defer tb.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := tb.Take(ctx); err != nil {
		t.Fatalf("initial take: %v", err)
	}
	// At 50 tps the next token arrives within ~20ms, well inside the deadline.
	if err := tb.Take(ctx); err != nil {
		t.Fatalf("refilled take: %v", err)
	}
}

func TestTokenBucketStopReturns(t *testing.T) {
	tb := NewTokenBucket(5, 1)

	done := make(chan struct{})
	go func() {
		tb.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return; refill goroutine still running")
	}
}

func TestClassLimiterUnknownClassFallsBackToWrite(t *testing.T) {
	l := NewClassLimiter(100, 100, 1)
	defer l.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.Wait(ctx, OpClass("unknown")); err != nil {
		t.Fatalf("unknown class should fall back to the write bucket: %v", err)
	}
}

func TestClassLimiterSeparatesClasses(t *testing.T) {
	l := NewClassLimiter(1, 1, 1)
	defer l.Stop()

	ctx := context.Background()
	if err := l.Wait(ctx, ClassRead); err != nil {
		t.Fatalf("read wait: %v", err)
	}

	// Draining the read bucket must not affect the write bucket.
	writeCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if err := l.Wait(writeCtx, ClassWrite); err != nil {
		t.Fatalf("write wait after read drain: %v", err)
	}
}
