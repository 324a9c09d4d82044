package gmailapi

import (
	"context"
	"fmt"
	"time"
)

// OpClass groups Gmail operations by quota cost.
type OpClass string

const (
	ClassRead  OpClass = "gmail_api_read"
	ClassWrite OpClass = "gmail_api_write"
)

// Limiter gates outbound API calls so we respect Gmail quota.
type Limiter interface {
	Wait(ctx context.Context, class OpClass) error
}

// TokenBucket is a fixed-rate token bucket.
type TokenBucket struct {
	ticker   *time.Ticker
	tokens   chan struct{}
	quit     chan struct{}
	stopDone chan struct{}
}

// NewTokenBucket returns a bucket that releases tps tokens per second with
// the given burst capacity.
func NewTokenBucket(tps, burst int) *TokenBucket {
	if tps <= 0 {
		tps = 1
	}
	if burst <= 0 {
		burst = tps
	}
	tb := &TokenBucket{
		ticker:   time.NewTicker(time.Second / time.Duration(tps)),
		tokens:   make(chan struct{}, burst),
		quit:     make(chan struct{}),
		stopDone: make(chan struct{}),
	}
	// allow an initial burst without waiting
	for i := 0; i < burst; i++ {
		tb.tokens <- struct{}{}
	}
	go tb.run()
	return tb
}

func (t *TokenBucket) run() {
	defer close(t.stopDone)
	for {
		select {
		case <-t.quit:
			return
		case <-t.ticker.C:
			select {
			case t.tokens <- struct{}{}:
			default:
			}
		}
	}
}

// Take blocks until a token is available or the context is cancelled.
func (t *TokenBucket) Take(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return WrapError(KindCancelled, fmt.Errorf("rate wait cancelled: %w", ctx.Err()))
	case <-t.tokens:
		return nil
	}
}

// Stop ends the refill goroutine and returns once it has exited.
// Stopping the ticker alone would leave run() parked on a channel that
// never closes.
func (t *TokenBucket) Stop() {
	t.ticker.Stop()
	close(t.quit)
	<-t.stopDone
}

// ClassLimiter holds one bucket per operation class.
type ClassLimiter struct {
	buckets map[OpClass]*TokenBucket
}

// NewClassLimiter builds the standard read/write pair.
func NewClassLimiter(readTPS, writeTPS, burst int) *ClassLimiter {
	return &ClassLimiter{
		buckets: map[OpClass]*TokenBucket{
			ClassRead:  NewTokenBucket(readTPS, burst),
			ClassWrite: NewTokenBucket(writeTPS, burst),
		},
	}
}

// Wait blocks until the bucket for class releases a token.
func (l *ClassLimiter) Wait(ctx context.Context, class OpClass) error {
	b, ok := l.buckets[class]
	if !ok {
		b = l.buckets[ClassWrite]
	}
	return b.Take(ctx)
}

// Stop stops all buckets.
func (l *ClassLimiter) Stop() {
	for _, b := range l.buckets {
		b.Stop()
	}
}

var _ Limiter = (*ClassLimiter)(nil)

// NopLimiter never blocks. Used in tests.
type NopLimiter struct{}

func (NopLimiter) Wait(ctx context.Context, class OpClass) error { return nil }
