//go:build !linux

package workdir

import (
	"fmt"
	"os"
	"sync"
)

var mu sync.Mutex

// Pin is a no-op on platforms without thread-scoped working directories.
func Pin() error {
	return nil
}

// Enter takes the process-wide lock and changes the working directory. The
// release restores the previous directory and drops the lock; every worker
// holds it across its read of the translation unit.
func Enter(dir string) (func(), error) {
	mu.Lock()
	previous, err := os.Getwd()
	if err != nil {
		mu.Unlock()
		return nil, err
	}
	if err := os.Chdir(dir); err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("failed to enter %v: %w", dir, err)
	}
	return func() {
		_ = os.Chdir(previous)
		mu.Unlock()
	}, nil
}
