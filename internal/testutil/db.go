// Package testutil provides test utilities for database setup.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eco-adventures-backend/internal/database"
)

// NewTestDB creates an in-memory SQLite database with the application
// schema. Every connection to ":memory:" is a separate database, so the
// pool is pinned to one connection. The database is closed when the
// test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySQLiteSchema(context.Background(), db))
	return db
}

// NewFileTestDB opens a SQLite file under t.TempDir() the way the server
// does (immediate transactions, busy timeout) but with conns pooled
// connections, so concurrent transactions really contend for the write
// lock.
func NewFileTestDB(t *testing.T, conns int) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "eco.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(conns)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySQLiteSchema(context.Background(), db))
	return db
}

// CourseSeed describes a course row inserted directly by SeedCourse.
// Zero fields get defaults: MaxSpots 10, Status "open", Date 2030-01-01.
type CourseSeed struct {
	Title        string
	Category     string
	Status       string
	Date         string
	MaxSpots     int
	Current      int
	InstructorID int64
}

// SeedCourse inserts a course and returns its id.
func SeedCourse(t *testing.T, db *sql.DB, s CourseSeed) uint64 {
	t.Helper()
	if s.Title == "" {
		s.Title = "Tide pool walk"
	}
	if s.Category == "" {
		s.Category = "nature_explore"
	}
	if s.Status == "" {
		s.Status = "open"
	}
	if s.Date == "" {
		s.Date = "2030-01-01"
	}
	if s.MaxSpots == 0 {
		s.MaxSpots = 10
	}
	var instructor any
	if s.InstructorID != 0 {
		instructor = s.InstructorID
	}
	ts := time.Now().UTC().Truncate(time.Second)
	res, err := db.Exec(`INSERT INTO courses (title, category, status, date, max_spots, current_registrations, instructor_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Title, s.Category, s.Status, s.Date, s.MaxSpots, s.Current, instructor, ts, ts)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

// SeedInstructor inserts an active instructor and returns its id.
func SeedInstructor(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	ts := time.Now().UTC().Truncate(time.Second)
	res, err := db.Exec(`INSERT INTO instructors (name, title, specialties, is_active, created_at, updated_at)
		VALUES (?, 'Naturalist', '["birds"]', 1, ?, ?)`, name, ts, ts)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// CourseSeats reads the seat ledger columns of a course.
func CourseSeats(t *testing.T, db *sql.DB, courseID uint64) (current int, status string) {
	t.Helper()
	err := db.QueryRow(`SELECT current_registrations, status FROM courses WHERE id = ?`, courseID).Scan(&current, &status)
	require.NoError(t, err)
	return current, status
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
