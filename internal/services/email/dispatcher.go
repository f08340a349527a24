// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"codeberg.org/oliverandrich/shopdesk/internal/errutil"
	"codeberg.org/oliverandrich/shopdesk/internal/metrics"
)

// ErrDispatcherClosed is returned by Dispatch after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher delivers messages in the background so that callers never wait
// on the mail server. Failed deliveries are retried with exponential backoff
// and then logged and counted.
type Dispatcher struct {
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	maxRetries uint64
	baseDelay  time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	// ctx is cancelled when Close gives up waiting for deliveries.
	ctx    context.Context
	cancel context.CancelFunc
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRetry sets the number of retries and the first backoff delay.
func WithRetry(maxRetries uint64, baseDelay time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxRetries = maxRetries
		d.baseDelay = baseDelay
	}
}

// WithMetrics records delivery outcomes.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher wraps notifier for asynchronous delivery.
func NewDispatcher(notifier Notifier, opts ...DispatcherOption) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		notifier:   notifier,
		logger:     slog.Default(),
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch queues a message and returns immediately. Values of ctx such as
// the locale and trace are kept, its cancellation is not.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient, subject, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	ctx = context.WithoutCancel(ctx)
	d.wg.Go(func() {
		d.deliver(ctx, recipient, subject, body)
	})
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, recipient, subject, body string) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	defer context.AfterFunc(d.ctx, stop)()

	backoff := retry.WithMaxRetries(d.maxRetries, retry.NewExponential(d.baseDelay))
	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := d.notifier.Send(ctx, recipient, subject, body); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		d.metrics.Notification("failed")
		errutil.LogError(ctx, d.logger, "notification_failed", err)
		return
	}

	d.metrics.Notification("sent")
	d.logger.DebugContext(ctx, "notification_sent", "to", recipient, "attempts", attempts)
}

// Close stops accepting messages and waits for pending deliveries until ctx
// is done. Deliveries still running then are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
