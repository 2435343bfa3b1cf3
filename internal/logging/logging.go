package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stale-cleaner/internal/config"
)

const logFile = "stale-cleaner.log"

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// NewWithWriter creates a logger writing to out and, when a log directory
// is configured, also to a rotated file inside it
func NewWithWriter(out io.Writer, cfg config.LoggingCfg) *log.Logger {
	flags := log.LstdFlags | log.Lmicroseconds
	if cfg.Dir == "" {
		return log.New(out, "", flags)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		log.Printf("failed to ensure log directory %s: %v", cfg.Dir, err)
		return log.New(out, "", flags)
	}

	filePath := filepath.Join(cfg.Dir, logFile)

	rotateDays := 30
	if cfg.RotationDays > 0 {
		rotateDays = cfg.RotationDays
	}
	rotateLogsIfNeeded(filePath, rotateDays, time.Now())

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("failed to open log file %s: %v", filePath, err)
		return log.New(out, "", flags)
	}

	return log.New(io.MultiWriter(out, f), "", flags)
}

// rotateLogsIfNeeded renames the current log once it is older than
// rotationDays and drops rotated logs past the same cutoff
func rotateLogsIfNeeded(logPath string, rotationDays int, now time.Time) {
	info, err := os.Stat(logPath)
	if err != nil {
		return
	}

	cutoff := now.AddDate(0, 0, -rotationDays)
	if !info.ModTime().Before(cutoff) {
		return
	}

	rotatedPath := logPath + "." + info.ModTime().Format("20060102-150405")
	if err := os.Rename(logPath, rotatedPath); err != nil {
		log.Printf("failed to rotate log file: %v", err)
		return
	}

	cleanupOldLogs(logPath, rotatedPath, cutoff)
}

// cleanupOldLogs removes rotated logs older than cutoff, except keep
func cleanupOldLogs(logPath, keep string, cutoff time.Time) {
	dir := filepath.Dir(logPath)
	prefix := filepath.Base(logPath) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fullPath := filepath.Join(dir, entry.Name())
		if fullPath == keep {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(fullPath); err != nil {
				log.Printf("failed to remove old log file %s: %v", fullPath, err)
			}
		}
	}
}
