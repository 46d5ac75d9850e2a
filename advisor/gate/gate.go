// Package gate implements the profile-change gate: it merges newly collected
// runtime profile snapshots into a reference baseline and decides whether the
// accumulated change is significant enough to justify a recompilation.
//
// All required advisory locks are taken before any parse, merge, or write
// step and released on every exit path, so at most one gate mutates a given
// baseline at a time. Lock acquisition failure is reported, never retried
// here; retry scheduling belongs to the external caller.
package gate

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aot-advisor/aot-advisor/advisor/flock"
	"github.com/aot-advisor/aot-advisor/advisor/profiles"
)

// Options tune a single gate invocation. Immutable per call.
type Options struct {
	// ForceMerge writes the merged result back unconditionally and skips the
	// significance test entirely.
	ForceMerge bool
	// BootImageMerge tolerates snapshot version mismatches instead of
	// treating them as fatal.
	BootImageMerge bool
	// MinNewMethodsPercent is the inclusive significance threshold on new
	// method records.
	MinNewMethodsPercent uint32
	// MinNewClassesPercent is the inclusive significance threshold on new
	// class records.
	MinNewClassesPercent uint32
}

// DefaultOptions returns the stock thresholds: 20% new methods or classes.
func DefaultOptions() Options {
	return Options{
		MinNewMethodsPercent: 20,
		MinNewClassesPercent: 20,
	}
}

// Lock is one held advisory lock on a profile file.
type Lock interface {
	File() *os.File
	Release() error
}

// Locker acquires exclusive advisory locks on profile files.
type Locker interface {
	Acquire(path string) (Lock, error)
	AcquireFile(f *os.File) (Lock, error)
}

// Store is the profile-store capability the gate orchestrates.
type Store interface {
	Parse(r io.Reader, filter profiles.Filter) (*profiles.Data, error)
	Format(w io.Writer, d *profiles.Data) error
	Merge(into, from *profiles.Data, coerceVersions bool) error
	NewMethodsPercent(before, after *profiles.Data) uint32
	NewClassesPercent(before, after *profiles.Data) uint32
}

// Gate evaluates profile change significance against a reference baseline.
type Gate struct {
	locker Locker
	store  Store
}

// New creates a Gate over the given locking and profile-store capabilities.
func New(locker Locker, store Store) *Gate {
	return &Gate{locker: locker, store: store}
}

// NewSystem creates a Gate over flock(2) locking and the on-disk snapshot
// store. A zero lockTimeout blocks indefinitely on held locks.
func NewSystem(lockTimeout time.Duration) *Gate {
	return New(SystemLocker{Flock: &flock.Locker{Timeout: lockTimeout}}, profiles.Store{})
}

// ProcessProfiles merges the profile snapshots at inputs into the baseline at
// reference and returns the verdict. ResultCompile implies the baseline was
// fully overwritten with the merged result; every other result implies the
// baseline was left untouched.
func (g *Gate) ProcessProfiles(inputs []string, reference string, filter profiles.Filter, opts Options) Result {
	locks := make([]Lock, 0, len(inputs)+1)
	defer func() {
		for _, l := range locks {
			if err := l.Release(); err != nil {
				logrus.Warnf("profile gate: %v", err)
			}
		}
	}()

	for _, path := range inputs {
		lock, err := g.locker.Acquire(path)
		if err != nil {
			logrus.Warnf("profile gate: cannot lock %s: %v", path, err)
			return ResultErrorCannotLock
		}
		locks = append(locks, lock)
	}
	refLock, err := g.locker.Acquire(reference)
	if err != nil {
		logrus.Warnf("profile gate: cannot lock reference %s: %v", reference, err)
		return ResultErrorCannotLock
	}
	locks = append(locks, refLock)

	return g.processLocked(locks[:len(locks)-1], refLock, filter, opts)
}

// ProcessProfileFiles is ProcessProfiles over pre-opened descriptors, used
// when the caller already holds the resources under its own discipline. The
// descriptors stay owned by the caller; only the advisory locks are dropped
// on return.
func (g *Gate) ProcessProfileFiles(inputs []*os.File, reference *os.File, filter profiles.Filter, opts Options) Result {
	locks := make([]Lock, 0, len(inputs)+1)
	defer func() {
		for _, l := range locks {
			if err := l.Release(); err != nil {
				logrus.Warnf("profile gate: %v", err)
			}
		}
	}()

	for _, f := range inputs {
		lock, err := g.locker.AcquireFile(f)
		if err != nil {
			logrus.Warnf("profile gate: cannot lock %s: %v", f.Name(), err)
			return ResultErrorCannotLock
		}
		locks = append(locks, lock)
	}
	refLock, err := g.locker.AcquireFile(reference)
	if err != nil {
		logrus.Warnf("profile gate: cannot lock reference %s: %v", reference.Name(), err)
		return ResultErrorCannotLock
	}
	locks = append(locks, refLock)

	return g.processLocked(locks[:len(locks)-1], refLock, filter, opts)
}

func (g *Gate) processLocked(inputLocks []Lock, refLock Lock, filter profiles.Filter, opts Options) Result {
	snapshots := make([]*profiles.Data, 0, len(inputLocks))
	for _, lock := range inputLocks {
		data, res := g.parseLocked(lock, filter)
		if res != ResultSuccess {
			return res
		}
		snapshots = append(snapshots, data)
	}
	baseline, res := g.parseLocked(refLock, filter)
	if res != ResultSuccess {
		return res
	}

	if !opts.BootImageMerge {
		for _, s := range snapshots {
			if s.Version != baseline.Version {
				logrus.Warnf("profile gate: snapshot version %d differs from baseline version %d", s.Version, baseline.Version)
				return ResultErrorDifferentVersions
			}
		}
	}

	merged := baseline.Clone()
	for _, s := range snapshots {
		if err := g.store.Merge(merged, s, opts.BootImageMerge); err != nil {
			if errors.Is(err, profiles.ErrVersionMismatch) {
				return ResultErrorDifferentVersions
			}
			logrus.Warnf("profile gate: merge failed: %v", err)
			return ResultErrorBadProfiles
		}
	}

	if opts.ForceMerge {
		return g.writeBack(refLock, merged)
	}

	newMethods := g.store.NewMethodsPercent(baseline, merged)
	newClasses := g.store.NewClassesPercent(baseline, merged)
	logrus.Debugf("profile gate: %d%% new methods, %d%% new classes (thresholds %d%%/%d%%)",
		newMethods, newClasses, opts.MinNewMethodsPercent, opts.MinNewClassesPercent)
	if newMethods >= opts.MinNewMethodsPercent || newClasses >= opts.MinNewClassesPercent {
		return g.writeBack(refLock, merged)
	}
	return ResultSkipCompilation
}

// parseLocked reads and decodes one locked snapshot, distinguishing byte-level
// read failures (ResultErrorIO) from invalid content (ResultErrorBadProfiles).
func (g *Gate) parseLocked(lock Lock, filter profiles.Filter) (*profiles.Data, Result) {
	f := lock.File()
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		logrus.Warnf("profile gate: seeking %s: %v", f.Name(), err)
		return nil, ResultErrorIO
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		logrus.Warnf("profile gate: reading %s: %v", f.Name(), err)
		return nil, ResultErrorIO
	}
	data, err := g.store.Parse(bytes.NewReader(raw), filter)
	if err != nil {
		if errors.Is(err, profiles.ErrBadFormat) {
			logrus.Warnf("profile gate: %s: %v", f.Name(), err)
			return nil, ResultErrorBadProfiles
		}
		logrus.Warnf("profile gate: reading %s: %v", f.Name(), err)
		return nil, ResultErrorIO
	}
	return data, ResultSuccess
}

// writeBack overwrites the baseline with the merged snapshot.
func (g *Gate) writeBack(refLock Lock, merged *profiles.Data) Result {
	f := refLock.File()
	if err := f.Truncate(0); err != nil {
		logrus.Warnf("profile gate: truncating %s: %v", f.Name(), err)
		return ResultErrorIO
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		logrus.Warnf("profile gate: seeking %s: %v", f.Name(), err)
		return ResultErrorIO
	}
	if err := g.store.Format(f, merged); err != nil {
		logrus.Warnf("profile gate: writing %s: %v", f.Name(), err)
		return ResultErrorIO
	}
	if err := f.Sync(); err != nil {
		logrus.Warnf("profile gate: syncing %s: %v", f.Name(), err)
		return ResultErrorIO
	}
	return ResultCompile
}
