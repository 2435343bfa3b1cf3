package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Object types stored in the deletions table
const (
	ObjectFile      = "file"
	ObjectDirectory = "directory"
)

// DeletionDB manages the SQLite database for deletion history
type DeletionDB struct {
	db *sql.DB
}

// Entry is what the pruner hands over for every removed entry
type Entry struct {
	Timestamp  time.Time
	Action     string // DELETE or ERROR
	Root       string
	Path       string
	ObjectType string
	Size       int64
	ModTime    time.Time     // Zero for directories
	Age        time.Duration // now - ModTime at evaluation; zero for directories
	Threshold  time.Duration
	Error      string
}

// DeletionRecord is a row read back from the deletions table
type DeletionRecord struct {
	ID               int64     `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Action           string    `json:"action"`
	Root             string    `json:"root"`
	Path             string    `json:"path"`
	ObjectType       string    `json:"object_type"`
	Size             int64     `json:"size"`
	AgeSeconds       int64     `json:"age_seconds"`
	ThresholdSeconds int64     `json:"threshold_seconds"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// NewDeletionDB creates a new database connection and initializes schema
func NewDeletionDB(dbPath string) (*DeletionDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// A real statement instead of Ping() so the file gets created
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	ddb := &DeletionDB{db: db}
	if err = ddb.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return ddb, nil
}

func (d *DeletionDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deletions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		root TEXT NOT NULL,
		path TEXT NOT NULL,
		object_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		mod_time DATETIME,
		age_seconds INTEGER,
		threshold_seconds INTEGER,
		error_message TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_timestamp ON deletions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_action ON deletions(action);
	CREATE INDEX IF NOT EXISTS idx_root ON deletions(root);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := d.db.Exec(schema)
	return err
}

// RecordDeletion inserts a deletion event into the database
func (d *DeletionDB) RecordDeletion(e Entry) error {
	var modTime interface{}
	if !e.ModTime.IsZero() {
		modTime = e.ModTime
	}

	query := `
	INSERT INTO deletions (
		timestamp, action, root, path, object_type, size,
		mod_time, age_seconds, threshold_seconds, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := d.db.Exec(
		query,
		e.Timestamp,
		e.Action,
		e.Root,
		e.Path,
		e.ObjectType,
		e.Size,
		modTime,
		int64(e.Age/time.Second),
		int64(e.Threshold/time.Second),
		e.Error,
	)
	return err
}

// Close closes the database connection
func (d *DeletionDB) Close() error {
	return d.db.Close()
}
