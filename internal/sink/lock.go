package sink

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

const lockFile = "zosavro.lock"

// LockDir takes an exclusive lock on an output directory so that two runs
// never write the same parts.
func LockDir(dir string) (*os.File, error) {
	path := filepath.Join(dir, lockFile)
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create lock file %q", path)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "cannot acquire lock on file %q", path)
	}
	return f, nil
}

// UnlockDir releases a lock taken by LockDir and removes the lock file.
func UnlockDir(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return errors.Wrapf(err, "cannot unlock lock on file %q", f.Name())
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "cannot close fd on file %q", f.Name())
	}
	if err := os.Remove(f.Name()); err != nil {
		return errors.Wrapf(err, "cannot remove file %q", f.Name())
	}
	return nil
}
