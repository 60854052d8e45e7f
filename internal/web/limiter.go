package web

// limiter.go bounds concurrent status-file imports. Each import parses a
// whole workbook in memory and fans writes out to the grading store, so
// a burst of uploads can exhaust memory and pool connections. A
// semaphore caps parallel imports; requests that cannot get a slot
// within the configured wait are turned away with 503.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// errImportsBusy is returned when every import slot stays occupied for
// the whole wait window. Callers should retry after a short delay.
var errImportsBusy = errors.New("too many concurrent imports, try again later")

// importLimiter is a semaphore over status-file import requests.
type importLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

func newImportLimiter(maxConcurrent int, maxWait time.Duration) *importLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}
	return &importLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire blocks until a slot is free, the wait window expires, or the
// request context ends. Every successful acquire needs a release.
func (l *importLimiter) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errImportsBusy
	}
}

func (l *importLimiter) release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

func (l *importLimiter) activeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// drain waits until no import is in flight, so shutdown never cuts an
// apply loop off halfway through a team fan-out.
func (l *importLimiter) drain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.activeCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
