//go:build linux

// Package workdir changes the working directory for a single worker without
// disturbing its siblings. On Linux the calling goroutine is pinned to its
// OS thread and the thread's filesystem attributes are unshared, so chdir
// becomes thread-scoped. Elsewhere a process-wide lock serializes the
// workers around the shared working directory.
package workdir

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin dedicates the calling goroutine to its OS thread and unshares the
// thread's filesystem state. Call once per worker, before the first Enter.
// The goroutine stays pinned; letting the thread back into the pool would
// leak its private working directory to unrelated goroutines.
func Pin() error {
	runtime.LockOSThread()
	if err := unix.Unshare(unix.CLONE_FS); err != nil {
		runtime.UnlockOSThread()
		return fmt.Errorf("failed to unshare filesystem state: %w", err)
	}
	return nil
}

// Enter changes the pinned thread's working directory. The returned release
// is a no-op; the directory simply stays until the next Enter.
func Enter(dir string) (func(), error) {
	if err := unix.Chdir(dir); err != nil {
		return nil, fmt.Errorf("failed to enter %v: %w", dir, err)
	}
	return func() {}, nil
}
