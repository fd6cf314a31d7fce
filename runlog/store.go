// Package runlog keeps a local history of completed report runs.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/haltiala/vahti/types"
)

var bucketRuns = []byte("runs")

// Entry records one completed report run, keyed by report date.
type Entry struct {
	ReportDate       string           `json:"report_date"`
	ReportKey        string           `json:"report_key"`
	ResourcesTracked int              `json:"resources_tracked"`
	Summary          types.RunSummary `json:"summary"`
	CompletedAt      time.Time        `json:"completed_at"`
}

// Store persists run entries to a local bbolt database.
type Store struct {
	db *bbolt.DB
}

// Open opens the run history database under dir, creating it if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, "vahti.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Record stores the entry, replacing any previous run for the same date.
func (s *Store) Record(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal run entry: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).Put([]byte(entry.ReportDate), data)
	})
}

// List returns up to limit entries, newest report date first. A limit of
// zero or less returns all entries.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		// Report dates are ISO formatted, so byte order is date order.
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to decode run entry %s: %w", k, err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
