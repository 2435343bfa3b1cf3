package database

import (
	"database/sql"
)

const selectColumns = `
	SELECT id, timestamp, action, root, path, object_type, size,
	       age_seconds, threshold_seconds, error_message
	FROM deletions
`

// GetRecentDeletions returns the N most recent deletion events
func (d *DeletionDB) GetRecentDeletions(limit int) ([]DeletionRecord, error) {
	return d.queryDeletions(selectColumns+`
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, limit)
}

// GetDeletionsByRoot returns every event recorded under a cleanup root
func (d *DeletionDB) GetDeletionsByRoot(root string) ([]DeletionRecord, error) {
	return d.queryDeletions(selectColumns+`
	WHERE root = ?
	ORDER BY timestamp DESC, id DESC
	`, root)
}

// Summary aggregates the whole history
type Summary struct {
	FilesDeleted int64            `json:"files_deleted"`
	DirsDeleted  int64            `json:"dirs_deleted"`
	Errors       int64            `json:"errors"`
	BytesFreed   int64            `json:"bytes_freed"`
	BytesByRoot  map[string]int64 `json:"bytes_by_root"`
}

// GetSummary returns totals across all recorded events
func (d *DeletionDB) GetSummary() (*Summary, error) {
	s := &Summary{BytesByRoot: make(map[string]int64)}

	err := d.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN action = 'DELETE' AND object_type = 'file' THEN 1 END),
			COUNT(CASE WHEN action = 'DELETE' AND object_type = 'directory' THEN 1 END),
			COUNT(CASE WHEN action = 'ERROR' THEN 1 END),
			COALESCE(SUM(CASE WHEN action = 'DELETE' THEN size ELSE 0 END), 0)
		FROM deletions
	`).Scan(&s.FilesDeleted, &s.DirsDeleted, &s.Errors, &s.BytesFreed)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(`
		SELECT root, COALESCE(SUM(size), 0)
		FROM deletions
		WHERE action = 'DELETE'
		GROUP BY root
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var root string
		var bytes int64
		if err := rows.Scan(&root, &bytes); err != nil {
			return nil, err
		}
		s.BytesByRoot[root] = bytes
	}
	return s, rows.Err()
}

func (d *DeletionDB) queryDeletions(query string, args ...interface{}) ([]DeletionRecord, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DeletionRecord
	for rows.Next() {
		var r DeletionRecord
		var age, threshold sql.NullInt64
		var errMsg sql.NullString

		err := rows.Scan(
			&r.ID, &r.Timestamp, &r.Action, &r.Root, &r.Path,
			&r.ObjectType, &r.Size, &age, &threshold, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		r.AgeSeconds = age.Int64
		r.ThresholdSeconds = threshold.Int64
		r.ErrorMessage = errMsg.String

		records = append(records, r)
	}

	return records, rows.Err()
}
