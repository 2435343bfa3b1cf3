// Package prune removes stale files below a root directory and then every
// directory left empty by that, bottom-up. A directory holding the marker
// file is skipped together with its whole subtree.
package prune

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"stale-cleaner/internal/config"
	"stale-cleaner/internal/database"
	"stale-cleaner/internal/fsops"
	"stale-cleaner/internal/metrics"
	"stale-cleaner/internal/safety"
)

var (
	ErrRootNotExist = errors.New("directory does not exist")
	ErrRootNotDir   = errors.New("not a directory")
	ErrNegativeAge  = errors.New("age cannot be negative")
)

// Logger is the structured logging surface the pruner needs
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type stdLogger struct {
	*log.Logger
}

func (l *stdLogger) Info(msg string, args ...interface{}) {
	l.logWithLevel("INFO", msg, args...)
}

func (l *stdLogger) Error(msg string, args ...interface{}) {
	l.logWithLevel("ERROR", msg, args...)
}

func (l *stdLogger) logWithLevel(level, msg string, args ...interface{}) {
	parts := []interface{}{fmt.Sprintf("[%s]", level), msg}
	parts = append(parts, args...)
	l.Logger.Println(parts...)
}

// Recorder persists deletion events. *database.DeletionDB satisfies it.
type Recorder interface {
	RecordDeletion(e database.Entry) error
}

// Stats describes what one Clean call did. On error it covers the work done
// up to the failure.
type Stats struct {
	FilesDeleted  int
	DirsDeleted   int
	BytesFreed    int64
	FilesKept     int
	ProtectedDirs int
	Duration      time.Duration
}

// Pruner deletes stale content below a root
type Pruner struct {
	logger    Logger
	deleter   fsops.Deleter
	validator *safety.Validator
	recorder  Recorder
	marker    string
}

// NewPruner creates a Pruner using the real filesystem and the default marker.
// A nil logger logs to log.Default(); a nil recorder disables history.
func NewPruner(logger *log.Logger, recorder Recorder) *Pruner {
	if logger == nil {
		logger = log.Default()
	}
	metrics.Init()
	return &Pruner{
		logger:   &stdLogger{Logger: logger},
		deleter:  fsops.OSDeleter{},
		recorder: recorder,
		marker:   config.DefaultMarker,
	}
}

// SetDeleter replaces the filesystem mutation backend
func (p *Pruner) SetDeleter(d fsops.Deleter) {
	p.deleter = d
}

// SetValidator enables safety validation of the root and every delete target
func (p *Pruner) SetValidator(v *safety.Validator) {
	p.validator = v
}

// SetMarker changes the exemption file name
func (p *Pruner) SetMarker(name string) {
	p.marker = name
}

// Clean removes every file below root older than age, then every directory
// that ends up empty. root itself is never removed.
func (p *Pruner) Clean(root string, age time.Duration) (Stats, error) {
	return p.CleanAt(root, age, time.Now())
}

// CleanAt is Clean with an explicit reference time used for every comparison
func (p *Pruner) CleanAt(root string, age time.Duration, now time.Time) (Stats, error) {
	var st Stats
	start := time.Now()

	if age < 0 {
		return st, fmt.Errorf("%w: %v", ErrNegativeAge, age)
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return st, fmt.Errorf("%w: %s", ErrRootNotExist, root)
		}
		return st, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return st, fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}

	if p.validator != nil {
		if err := p.validator.ValidateRoot(root); err != nil {
			return st, err
		}
	}

	w := &walk{Pruner: p, root: root, age: age, now: now, stats: &st}

	// The root's own eligibility is ignored so it is never deleted
	_, err = w.processDir(root)

	st.Duration = time.Since(start)
	metrics.CleanupDuration.Observe(st.Duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.Inc()
		p.logger.Error("Cleanup aborted", "root", root, "error", err)
		return st, err
	}

	p.logger.Info("Cleanup complete",
		"root", root,
		"files_deleted", st.FilesDeleted,
		"dirs_deleted", st.DirsDeleted,
		"files_kept", st.FilesKept,
		"protected_dirs", st.ProtectedDirs,
		"bytes_freed", st.BytesFreed,
	)
	return st, nil
}

// walk carries the per-call state shared by every level of the recursion
type walk struct {
	*Pruner
	root  string
	age   time.Duration
	now   time.Time
	stats *Stats
}

// processDir reports whether dir ended up with every entry removed and no
// marker, i.e. whether the caller may remove it. It never removes dir itself.
func (w *walk) processDir(dir string) (bool, error) {
	marked, err := w.hasMarker(dir)
	if err != nil {
		return false, err
	}
	if marked {
		w.stats.ProtectedDirs++
		metrics.ProtectedDirsTotal.Inc()
		w.logger.Info("Skipping protected directory", "path", dir)
		return false, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	allRemoved := true
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		var removed bool
		if entry.IsDir() {
			removed, err = w.processDir(path)
			if err != nil {
				return false, err
			}
			if removed {
				if err := w.removeDir(path); err != nil {
					return false, err
				}
			}
		} else {
			removed, err = w.processFile(path, entry)
			if err != nil {
				return false, err
			}
		}

		allRemoved = allRemoved && removed
	}

	return allRemoved, nil
}

func (w *walk) hasMarker(dir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dir, w.marker))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// processFile removes path when it is strictly older than the threshold.
// A modification time in the future gives a negative age and keeps the file.
func (w *walk) processFile(path string, entry fs.DirEntry) (bool, error) {
	info, err := entry.Info()
	if err != nil {
		return false, err
	}

	elapsed := w.now.Sub(info.ModTime())
	if elapsed <= w.age {
		w.stats.FilesKept++
		return false, nil
	}

	if err := w.authorize(path); err != nil {
		return false, err
	}

	e := database.Entry{
		Timestamp:  time.Now(),
		Root:       w.root,
		Path:       path,
		ObjectType: database.ObjectFile,
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		Age:        elapsed,
		Threshold:  w.age,
	}

	if err := w.deleter.RemoveFile(path); err != nil {
		w.record(e, err)
		return false, err
	}

	w.stats.FilesDeleted++
	w.stats.BytesFreed += info.Size()
	metrics.RecordFileDeletion(w.root, info.Size())
	w.logger.Info("DELETE", "path", path, "object", database.ObjectFile, "size", info.Size(), "age", elapsed.Round(time.Second))
	w.record(e, nil)
	return true, nil
}

func (w *walk) removeDir(path string) error {
	if err := w.authorize(path); err != nil {
		return err
	}

	e := database.Entry{
		Timestamp:  time.Now(),
		Root:       w.root,
		Path:       path,
		ObjectType: database.ObjectDirectory,
		Threshold:  w.age,
	}

	if err := w.deleter.RemoveDir(path); err != nil {
		w.record(e, err)
		return err
	}

	w.stats.DirsDeleted++
	metrics.DirsDeletedTotal.Inc()
	w.logger.Info("DELETE", "path", path, "object", database.ObjectDirectory)
	w.record(e, nil)
	return nil
}

func (w *walk) authorize(path string) error {
	if w.validator == nil {
		return nil
	}
	return w.validator.ValidateDeleteTarget(w.root, path)
}

// record writes e to the history. A history failure is logged and ignored;
// it never changes what happens on disk.
func (w *walk) record(e database.Entry, deleteErr error) {
	if w.recorder == nil {
		return
	}
	e.Action = "DELETE"
	if deleteErr != nil {
		e.Action = "ERROR"
		e.Error = deleteErr.Error()
	}
	if err := w.recorder.RecordDeletion(e); err != nil {
		w.logger.Error("Failed to record to database", "path", e.Path, "error", err)
	}
}
