package gmailapi

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
	"google.golang.org/api/gmail/v1"
)

const (
	baseBackoff = 250 * time.Millisecond
	maxBackoff  = 8 * time.Second
)

// Options tunes the client wrapper. Zero values fall back to defaults.
type Options struct {
	MaxRetries     int
	MaxInFlight    int64
	CallTimeout    time.Duration
	BatchSize      int
	ReadTPS        int
	WriteTPS       int
	RateLimitBurst int
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 16
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 30 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.ReadTPS <= 0 {
		o.ReadTPS = 10
	}
	if o.WriteTPS <= 0 {
		o.WriteTPS = 5
	}
	if o.RateLimitBurst <= 0 {
		o.RateLimitBurst = o.ReadTPS
	}
	return o
}

// Client wraps the generated Gmail service with rate limiting, bounded
// concurrency, per-call timeouts, and retry with backoff.
//
// The wrapped service and HTTP client are shared read-only after
// construction and safe for concurrent use.
type Client struct {
	svc     *gmail.Service
	http    *http.Client
	limiter Limiter
	sem     *semaphore.Weighted
	opts    Options
	log     *slog.Logger
}

// NewClient builds a client around an authenticated Gmail service. httpClient
// must carry the same credentials; it is used for batch endpoint requests.
func NewClient(svc *gmail.Service, httpClient *http.Client, opts Options, log *slog.Logger) *Client {
	opts = opts.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		svc:     svc,
		http:    httpClient,
		limiter: NewClassLimiter(opts.ReadTPS, opts.WriteTPS, opts.RateLimitBurst),
		sem:     semaphore.NewWeighted(opts.MaxInFlight),
		opts:    opts,
		log:     log,
	}
}

// Service exposes the underlying generated client for thin operations.
func (c *Client) Service() *gmail.Service { return c.svc }

// BatchSize returns the configured batch chunk size.
func (c *Client) BatchSize() int { return c.opts.BatchSize }

// call runs fn under the rate limiter and in-flight semaphore with a
// per-call timeout, retrying rate-limit and transient backend failures.
// Set retrySafe=false for operations that must not be re-sent once the
// request may have reached Gmail (permanent delete).
func (c *Client) call(ctx context.Context, class OpClass, retrySafe bool, fn func(ctx context.Context) error) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return WrapError(KindCancelled, err)
	}
	defer c.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx, class); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		kind := KindOf(err)
		parentAlive := ctx.Err() == nil
		if kind == KindCancelled && parentAlive {
			// Only the per-call timeout fired; the parent context is fine.
			if !retrySafe {
				// The request may have taken effect remotely, so the
				// outcome is indeterminate and we must not re-send.
				return WrapError(KindAmbiguousDeletion, err)
			}
			kind = KindTransientBackend
		}
		if !retrySafe {
			return err
		}
		if !retryable(kind) {
			return err
		}
		if attempt == c.opts.MaxRetries {
			break
		}

		delay := backoffDelay(attempt)
		c.log.Debug("retrying gmail call",
			"attempt", attempt+1,
			"kind", string(kind),
			"delay", delay,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return WrapError(KindCancelled, ctx.Err())
		}
	}
	return lastErr
}

// backoffDelay computes min(2^k * 250ms + U[0, 250ms), 8s).
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff << uint(attempt)
	d += time.Duration(rand.Int63n(int64(baseBackoff)))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
