// Package flock provides cross-process exclusive advisory locking on files
// via flock(2). Locks are cooperative: they serialize only processes that
// also take them, which is exactly the discipline the profile-change gate
// and the attempt ledger require around their read-merge-overwrite cycles.
package flock

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// pollInterval is the retry cadence while waiting on a held lock under a timeout.
const pollInterval = 10 * time.Millisecond

// Locker acquires exclusive advisory locks. Timeout zero blocks until the
// lock is granted; a positive Timeout polls non-blocking until the deadline
// and then fails, so a wedged peer cannot stall the caller forever.
type Locker struct {
	Timeout time.Duration
}

// Lock is one held advisory lock.
type Lock struct {
	f     *os.File
	owned bool // whether Release should close f
}

// File exposes the locked descriptor for reading and writing.
func (l *Lock) File() *os.File {
	return l.f
}

// Release drops the lock, closing the descriptor only if the Locker opened it.
func (l *Lock) Release() error {
	flockErr := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if l.owned {
		if closeErr := l.f.Close(); flockErr == nil {
			flockErr = closeErr
		}
	}
	if flockErr != nil {
		return fmt.Errorf("releasing lock on %s: %w", l.f.Name(), flockErr)
	}
	return nil
}

// Acquire opens or creates path and takes an exclusive lock on it.
func (lk *Locker) Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s for locking: %w", path, err)
	}
	if err := lk.flock(f); err != nil {
		f.Close()
		return nil, err
	}
	return &Lock{f: f, owned: true}, nil
}

// AcquireFile takes an exclusive lock on a caller-owned descriptor. The
// caller keeps ownership: Release drops the lock without closing the file.
func (lk *Locker) AcquireFile(f *os.File) (*Lock, error) {
	if err := lk.flock(f); err != nil {
		return nil, err
	}
	return &Lock{f: f, owned: false}, nil
}

func (lk *Locker) flock(f *os.File) error {
	fd := int(f.Fd())
	if lk.Timeout <= 0 {
		if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
			return fmt.Errorf("locking %s: %w", f.Name(), err)
		}
		return nil
	}
	deadline := time.Now().Add(lk.Timeout)
	for {
		err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if err != unix.EWOULDBLOCK {
			return fmt.Errorf("locking %s: %w", f.Name(), err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("locking %s: timed out after %s", f.Name(), lk.Timeout)
		}
		time.Sleep(pollInterval)
	}
}
