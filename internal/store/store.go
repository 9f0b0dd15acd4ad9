// Package store keeps a sqlite index of rendered maps so unchanged maps can
// be skipped on the next batch.
package store

import (
	"crypto/sha1"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Index is the render index database.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index at file.
func Open(file string) (*Index, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", file, err)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS render (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL, settings TEXT NOT NULL, rendered INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS output (render_id INTEGER NOT NULL, file TEXT NOT NULL, FOREIGN KEY(render_id) REFERENCES render(id) ON DELETE CASCADE)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Fingerprint returns the upper-case hex SHA-1 of a file's contents.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

// Unchanged reports whether path was last rendered from the same contents
// with the same settings, and every output it produced still exists.
func (ix *Index) Unchanged(path, sum, settings string) (bool, error) {
	var id int64
	switch err := ix.db.QueryRow("SELECT id FROM render WHERE path = ? AND sha1 = ? AND settings = ?", path, sum, settings).Scan(&id); err {
	case sql.ErrNoRows:
		return false, nil
	case nil:
	default:
		return false, fmt.Errorf("store: lookup %s: %w", path, err)
	}

	files, err := ix.Outputs(path)
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		return false, nil
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return false, nil
		}
	}
	return true, nil
}

// Outputs lists the files recorded for path.
func (ix *Index) Outputs(path string) ([]string, error) {
	rows, err := ix.db.Query("SELECT o.file FROM output AS o JOIN render AS r ON o.render_id = r.id WHERE r.path = ? ORDER BY o.file", path)
	if err != nil {
		return nil, fmt.Errorf("store: outputs %s: %w", path, err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Record replaces the entry for path.
func (ix *Index) Record(path, sum, settings string, outputs []string) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("store: record %s: %w", path, err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec("DELETE FROM output WHERE render_id IN (SELECT id FROM render WHERE path = ?)", path); err != nil {
		return fmt.Errorf("store: record %s: %w", path, err)
	}
	if _, err = tx.Exec("DELETE FROM render WHERE path = ?", path); err != nil {
		return fmt.Errorf("store: record %s: %w", path, err)
	}
	result, err := tx.Exec("INSERT INTO render (path, sha1, settings, rendered) VALUES (?, ?, ?, ?)", path, sum, settings, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: record %s: %w", path, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	for _, f := range outputs {
		if _, err = tx.Exec("INSERT INTO output (render_id, file) VALUES (?, ?)", id, f); err != nil {
			return fmt.Errorf("store: record %s: %w", path, err)
		}
	}
	return tx.Commit()
}

// Forget removes the entry for path so its next render is never skipped.
func (ix *Index) Forget(path string) error {
	if _, err := ix.db.Exec("DELETE FROM output WHERE render_id IN (SELECT id FROM render WHERE path = ?)", path); err != nil {
		return fmt.Errorf("store: forget %s: %w", path, err)
	}
	if _, err := ix.db.Exec("DELETE FROM render WHERE path = ?", path); err != nil {
		return fmt.Errorf("store: forget %s: %w", path, err)
	}
	return nil
}

// Len returns the number of recorded maps.
func (ix *Index) Len() (int, error) {
	var n int
	if err := ix.db.QueryRow("SELECT COUNT(*) FROM render").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Settings joins the render settings that influence output into one key.
func Settings(parts ...string) string {
	return strings.Join(parts, ";")
}
