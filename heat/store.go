package heat

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// PointStore persists ingested samples in SQLite so a service restart
// keeps previously accumulated data. The zero-dependency driver keeps the
// binary pure Go.
type PointStore struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS points (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	category    TEXT NOT NULL,
	received_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_points_category ON points(category);
`

// OpenStore opens (and if needed creates) the point database at path.
func OpenStore(path string) (*PointStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening point store: %w", err)
	}

	// WAL keeps concurrent ingest and render reads from blocking each other.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PointStore{db: db}, nil
}

// Close closes the underlying database.
func (s *PointStore) Close() error {
	return s.db.Close()
}

// Insert appends a batch of points in one transaction.
func (s *PointStore) Insert(points []Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO points(lat, lon, category, received_at) VALUES(?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, p := range points {
		if _, err := stmt.Exec(p.Lat, p.Lon, p.Category, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing insert: %w", err)
	}
	return nil
}

// All returns every stored point in insertion order.
func (s *PointStore) All() ([]Point, error) {
	rows, err := s.db.Query("SELECT lat, lon, category FROM points ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Lat, &p.Lon, &p.Category); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}
	return points, nil
}

// Count returns the number of stored points.
func (s *PointStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM points").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return n, nil
}

// Clear removes every stored point.
func (s *PointStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM points"); err != nil {
		return fmt.Errorf("clearing points: %w", err)
	}
	return nil
}
