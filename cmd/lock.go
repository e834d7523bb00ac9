package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const lockFileName = ".georef.lock"

// lockOutputDir takes an exclusive lock on dir so concurrent runs cannot
// interleave checkpoints or outputs. Call the returned func to release it.
func lockOutputDir(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	lockPath := filepath.Join(dir, lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another georef run is writing to %s", dir)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			zap.L().Warn("failed to release output lock", zap.String("lock", lockPath), zap.Error(err))
		}
	}, nil
}
