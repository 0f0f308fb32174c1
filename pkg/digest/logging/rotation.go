package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultMaxLogSize is the size at which the log file is rotated.
const DefaultMaxLogSize = 10 * 1024 * 1024

// RotationConfig configures log file rotation. Every digest run appends to
// the same file, so old runs are moved aside once it grows past MaxSize.
type RotationConfig struct {
	// MaxSize is the size in bytes that triggers rotation. Zero selects
	// DefaultMaxLogSize.
	MaxSize int64

	// MaxBackups is the number of rotated files kept. Zero keeps all.
	MaxBackups int

	// MaxAge is the number of days a rotated file is kept. Zero disables
	// age-based cleanup.
	MaxAge int
}

// DefaultRotationConfig returns the rotation used when none is configured.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    DefaultMaxLogSize,
		MaxBackups: 3,
		MaxAge:     30,
	}
}

// RotatingWriter is an io.WriteCloser that renames the log file aside when a
// write would push it past MaxSize. It is safe for concurrent use.
type RotatingWriter struct {
	path string
	cfg  RotationConfig

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating parent directories.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxLogSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{path: path, cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.cleanup()
	return w, nil
}

// Write appends p, rotating first if needed.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.cfg.MaxSize {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing to log file: %w", err)
	}
	return n, nil
}

// Close syncs and closes the log file. Closing twice is a no-op.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		w.file = nil
		return fmt.Errorf("syncing log file: %w", err)
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Path returns the active log file path.
func (w *RotatingWriter) Path() string {
	return w.path
}

func (w *RotatingWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = file
	w.size = info.Size()
	return nil
}

// rotate must be called with w.mu held.
func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing current file: %w", err)
	}
	w.file = nil

	if err := os.Rename(w.path, w.rotatedName(time.Now())); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("renaming log file: %w", err)
	}
	if err := w.open(); err != nil {
		return err
	}
	w.cleanup()
	return nil
}

// rotatedName returns e.g. digest.2026-01-20-150405.000000000.log.
func (w *RotatingWriter) rotatedName(t time.Time) string {
	ext := filepath.Ext(w.path)
	base := strings.TrimSuffix(w.path, ext)
	return fmt.Sprintf("%s.%s%s", base, t.Format("2006-01-02-150405.000000000"), ext)
}

// rotated lists rotated siblings of the log file, newest first.
func (w *RotatingWriter) rotated() []string {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == base {
			continue
		}
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext) {
			names = append(names, filepath.Join(dir, name))
		}
	}
	// The timestamp format sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names
}

// cleanup removes rotated files beyond MaxBackups or older than MaxAge.
// Errors are ignored.
func (w *RotatingWriter) cleanup() {
	maxAge := time.Duration(w.cfg.MaxAge) * 24 * time.Hour
	now := time.Now()

	for i, path := range w.rotated() {
		remove := w.cfg.MaxBackups > 0 && i >= w.cfg.MaxBackups
		if !remove && maxAge > 0 {
			if info, err := os.Stat(path); err == nil && now.Sub(info.ModTime()) > maxAge {
				remove = true
			}
		}
		if remove {
			_ = os.Remove(path)
		}
	}
}
