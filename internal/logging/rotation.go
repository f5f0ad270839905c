package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Rotation configures size-based log rotation.
type Rotation struct {
	// MaxSizeMB is the size at which the active file is rotated. 0 disables rotation.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept next to the active one.
	MaxBackups int
	// Compress gzips rotated files in the background.
	Compress bool
}

// DefaultRotation returns the rotation used when nothing is configured.
func DefaultRotation() Rotation {
	return Rotation{MaxSizeMB: 10, MaxBackups: 3}
}

// RotatingFile is an io.Writer over a log file that rotates itself once it
// grows past the configured size. Backups are named <path>.1 (newest)
// through <path>.N (oldest), with a .gz suffix when compressed.
// It is safe for concurrent use.
type RotatingFile struct {
	mu   sync.Mutex
	path string
	rot  Rotation
	max  int64

	file *os.File
	size int64

	// compressing tracks background gzip jobs so Close can wait for them.
	compressing sync.WaitGroup
}

// OpenRotatingFile opens (or creates) path for appending.
func OpenRotatingFile(path string, rot Rotation) (*RotatingFile, error) {
	rf := &RotatingFile{
		path: path,
		rot:  rot,
		max:  int64(rot.MaxSizeMB) << 20,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

// open must be called with mu held (or before rf is shared).
func (rf *RotatingFile) open() error {
	if err := os.MkdirAll(filepath.Dir(rf.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rf.file = f
	rf.size = info.Size()
	return nil
}

// Write appends p, rotating first if p would push the file past its limit.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, fmt.Errorf("log file %s is closed", rf.path)
	}
	if rf.max > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.max {
		if err := rf.rotate(); err != nil {
			// Keep logging into whatever file is open rather than dropping lines.
			fmt.Fprintf(os.Stderr, "prodcon: log rotation failed: %v\n", err)
			if rf.file == nil {
				return 0, err
			}
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rf.file = nil

	// A previous backup may still be compressing under the name we are about to shift.
	rf.compressing.Wait()
	rf.shiftBackups()

	if rf.rot.MaxBackups > 0 {
		first := rf.backup(1)
		if err := os.Rename(rf.path, first); err != nil {
			if openErr := rf.open(); openErr != nil {
				return fmt.Errorf("failed to rename log file and reopen: %w", openErr)
			}
			return fmt.Errorf("failed to rename log file: %w", err)
		}
		if rf.rot.Compress {
			rf.compressing.Add(1)
			go func() {
				defer rf.compressing.Done()
				gzipInPlace(first)
			}()
		}
	} else if err := os.Remove(rf.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}

	return rf.open()
}

// shiftBackups renames .i to .i+1 from oldest to newest, dropping the
// backup that would fall off the end.
func (rf *RotatingFile) shiftBackups() {
	n := rf.rot.MaxBackups
	if n <= 0 {
		return
	}
	_ = os.Remove(rf.backup(n))
	_ = os.Remove(rf.backup(n) + ".gz")
	for i := n - 1; i >= 1; i-- {
		for _, ext := range []string{"", ".gz"} {
			if _, err := os.Stat(rf.backup(i) + ext); err == nil {
				_ = os.Rename(rf.backup(i)+ext, rf.backup(i+1)+ext)
			}
		}
	}
}

func (rf *RotatingFile) backup(n int) string {
	return fmt.Sprintf("%s.%d", rf.path, n)
}

// gzipInPlace replaces path with path.gz. Failures leave the plain backup behind.
func gzipInPlace(path string) {
	src, err := os.Open(path)
	if err != nil {
		return
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return
	}
	zw := gzip.NewWriter(dst)
	_, copyErr := io.Copy(zw, src)
	closeErr := zw.Close()
	fileErr := dst.Close()
	if copyErr != nil || closeErr != nil || fileErr != nil {
		_ = os.Remove(path + ".gz")
		return
	}
	_ = os.Remove(path)
}

// Size returns the number of bytes in the active file.
func (rf *RotatingFile) Size() int64 {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	return rf.size
}

// Path returns the active file path.
func (rf *RotatingFile) Path() string {
	return rf.path
}

// Sync flushes the active file.
func (rf *RotatingFile) Sync() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	return rf.file.Sync()
}

// Close syncs and closes the active file and waits for pending compression.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	f := rf.file
	rf.file = nil
	rf.mu.Unlock()

	rf.compressing.Wait()
	if f == nil {
		return nil
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return f.Close()
}
