// Package lock provides the fleet-wide critical section that guards every
// read-modify-write of the profile budgets and the CMDBs.
//
// The lock is a single file created with O_CREATE|O_EXCL: whoever creates it
// holds the lock, and releasing it removes the file. There is a single
// coarse lock, not one per profile or per entry. A holder that
// dies without releasing leaves the file behind and blocks every later
// request until an operator removes it; the stall warnings name the file.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"bootmatch/pkg/logging"
)

const (
	// DefaultInterval is the fixed delay between two acquisition attempts.
	DefaultInterval = time.Second
	// DefaultWarnEvery is the number of retries between two stall warnings.
	DefaultWarnEvery = 30
)

// Releaser ends a critical section. Release must be called on every exit
// path once Acquire succeeded, normally with defer.
type Releaser interface {
	Release() error
}

// Locker acquires the critical section.
type Locker interface {
	Acquire(ctx context.Context) (Releaser, error)
}

// FileLocker is a Locker backed by an exclusively created file.
type FileLocker struct {
	path      string
	interval  time.Duration
	warnEvery int

	// onWait is called before each sleep with the number of failed attempts.
	onWait func(attempt int)
}

// Option configures a FileLocker.
type Option func(*FileLocker)

// WithInterval sets the retry delay.
func WithInterval(d time.Duration) Option {
	return func(l *FileLocker) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithWarnEvery sets how many retries separate two stall warnings.
func WithWarnEvery(n int) Option {
	return func(l *FileLocker) {
		if n > 0 {
			l.warnEvery = n
		}
	}
}

// NewFileLocker returns a locker for the lock file at path.
func NewFileLocker(path string, opts ...Option) *FileLocker {
	l := &FileLocker{
		path:      path,
		interval:  DefaultInterval,
		warnEvery: DefaultWarnEvery,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the lock file path.
func (l *FileLocker) Path() string { return l.path }

// Acquire blocks until the lock file could be created. Contention is never
// an error: it retries at a fixed interval for as long as ctx allows and
// logs a warning on the first wait and then every warnEvery retries.
func (l *FileLocker) Acquire(ctx context.Context) (Releaser, error) {
	attempt := 0
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
		if err == nil {
			// The pid is only there to help an operator find a stuck holder.
			_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
			if attempt > 0 {
				logging.Debug("Lock", "acquired %s after %d retries", l.path, attempt)
			}
			return &held{path: l.path, file: f}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file %s: %w", l.path, err)
		}

		if attempt%l.warnEvery == 0 {
			logging.Warn("Lock", "waiting for lock %s", l.path)
		}
		if l.onWait != nil {
			l.onWait(attempt)
		}
		attempt++

		timer := time.NewTimer(l.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("waiting for lock %s: %w", l.path, ctx.Err())
		case <-timer.C:
		}
	}
}

type held struct {
	once sync.Once
	path string
	file *os.File
	err  error
}

// Release closes and removes the lock file. Calling it again is a no-op.
func (h *held) Release() error {
	h.once.Do(func() {
		closeErr := h.file.Close()
		removeErr := os.Remove(h.path)
		h.err = errors.Join(closeErr, removeErr)
		if h.err != nil {
			logging.Error("Lock", h.err, "failed to release lock %s", h.path)
		}
	})
	return h.err
}
