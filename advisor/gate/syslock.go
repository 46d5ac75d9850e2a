package gate

import (
	"os"

	"github.com/aot-advisor/aot-advisor/advisor/flock"
)

// SystemLocker adapts a flock.Locker to the gate's Locker interface.
type SystemLocker struct {
	Flock *flock.Locker
}

func (s SystemLocker) Acquire(path string) (Lock, error) {
	lock, err := s.Flock.Acquire(path)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

func (s SystemLocker) AcquireFile(f *os.File) (Lock, error) {
	lock, err := s.Flock.AcquireFile(f)
	if err != nil {
		return nil, err
	}
	return lock, nil
}
