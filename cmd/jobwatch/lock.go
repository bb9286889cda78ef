package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"jobwatch-engine/internal/config"
)

var errLocked = errors.New("another jobwatch run is in progress")

// acquireLock takes the data dir's run lock without waiting.
func acquireLock(cfg config.Config) (func(), error) {
	path := cfg.Path("jobwatch.lock")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", errLocked, path)
	}
	return func() { _ = fl.Unlock() }, nil
}
