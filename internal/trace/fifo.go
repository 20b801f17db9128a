package trace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// EnsureFIFO makes sure path exists so a producer started later has
// somewhere to write. Existing files of any type are left untouched.
func EnsureFIFO(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := unix.Mkfifo(path, 0o644); err != nil {
		// lost a race with another creator
		if errors.Is(err, unix.EEXIST) {
			return false, nil
		}
		return false, fmt.Errorf("mkfifo %s: %w", path, err)
	}
	slog.Info("Created trace FIFO", "path", path)
	return true, nil
}

// OpenStream opens the trace endpoint for reading. On a FIFO this blocks
// until a writer opens the other end.
func OpenStream(path string) (io.ReadCloser, error) {
	slog.Debug("Opening trace stream", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace stream: %w", err)
	}
	return f, nil
}
