package core

// export_limiter.go bounds how many exports run at once.
//
// A bulk export reads and parses every document in the corpus, so a burst of
// "all games" requests can pin every CPU. The limiter is a counting semaphore:
// callers wait up to maxWait for a slot and then fail with ErrTooManyExports.
// On shutdown, WaitForDrain blocks until in-flight exports finish.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyExports is returned when no export slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyExports = errors.New("too many concurrent exports, please try again later")

const (
	DefaultMaxConcurrentExports = 4
	DefaultExportWaitTime       = 10 * time.Second
)

// drainPollInterval is how often WaitForDrain checks the active count.
const drainPollInterval = 50 * time.Millisecond

// ExportLimiter restricts concurrent exports.
type ExportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewExportLimiter allows at most maxConcurrent exports; non-positive values
// fall back to the defaults.
func NewExportLimiter(maxConcurrent int, maxWait time.Duration) *ExportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExports
	}
	if maxWait <= 0 {
		maxWait = DefaultExportWaitTime
	}
	return &ExportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait.
// A successful Acquire must be paired with Release.
func (l *ExportLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyExports
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ExportLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ExportLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *ExportLimiter) Do(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// ActiveCount returns the number of exports holding a slot.
func (l *ExportLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *ExportLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *ExportLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no export holds a slot or ctx ends.
func (l *ExportLimiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// ExportLimiterStatus is a point-in-time view of the limiter for /health.
type ExportLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

func (l *ExportLimiter) Status() ExportLimiterStatus {
	return ExportLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
