// Package records persists finished analyses in a local bbolt database,
// one record per processed recording.
package records

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/meetlens/meetlens/pkg/analysis"
	"github.com/meetlens/meetlens/pkg/transcript"
)

var recordsBucket = []byte("records")

// Record is one persisted analysis. FullAnalysis is attached lazily
// once the multi-dimensional analysis completes and cached thereafter.
type Record struct {
	ID                string                       `json:"id"`
	Mode              string                       `json:"mode"`
	CreatedAt         time.Time                    `json:"createdAt"`
	FileName          string                       `json:"fileName"`
	FileSize          int64                        `json:"fileSize"`
	MimeType          string                       `json:"mimeType"`
	DiarizationResult transcript.DiarizationResult `json:"diarizationResult"`
	Entries           []transcript.Entry           `json:"entries,omitempty"`
	FullAnalysis      *analysis.Result             `json:"fullAnalysis,omitempty"`
}

// Store is a bbolt-backed record store.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening records db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing records bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save writes a record, overwriting any previous version.
func (s *Store) Save(record *Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", record.ID, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Put([]byte(record.ID), body)
	})
}

// ErrNotFound reports a missing record id.
type ErrNotFound struct{ ID string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("record %s not found", e.ID) }

// Get loads one record by id.
func (s *Store) Get(id string) (*Record, error) {
	var record Record
	err := s.db.View(func(tx *bolt.Tx) error {
		body := tx.Bucket(recordsBucket).Get([]byte(id))
		if body == nil {
			return &ErrNotFound{ID: id}
		}
		return json.Unmarshal(body, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns all records, newest first.
func (s *Store) List() ([]*Record, error) {
	var out []*Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(_, body []byte) error {
			var record Record
			if err := json.Unmarshal(body, &record); err != nil {
				return err
			}
			out = append(out, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AttachFullAnalysis stores the analysis on a record the first time it
// is computed. If the record already carries one, the stored result is
// returned untouched and compute is never called.
func (s *Store) AttachFullAnalysis(id string, compute func() (*analysis.Result, error)) (*analysis.Result, error) {
	record, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if record.FullAnalysis != nil {
		return record.FullAnalysis, nil
	}

	result, err := compute()
	if err != nil {
		return nil, err
	}
	record.FullAnalysis = result
	if err := s.Save(record); err != nil {
		return nil, err
	}
	return result, nil
}
