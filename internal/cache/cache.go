// Package cache keeps a persistent index of downloaded ephemeris data files
// using BoltDB. All writes are transactional; reads use read-only
// transactions.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketDownloads = []byte("downloads")

// Entry describes one cached download.
type Entry struct {
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	ETag      string    `json:"etag,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	Size      int64     `json:"size"`
}

// Index wraps a BoltDB file with typed accessors for download entries.
type Index struct {
	bolt *bbolt.DB
}

// Open opens (or creates) the index database at the given path.
func Open(path string) (*Index, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache index %q: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDownloads)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache bucket: %w", err)
	}
	return &Index{bolt: db}, nil
}

// Close closes the underlying database file.
func (ix *Index) Close() error {
	return ix.bolt.Close()
}

// Put upserts the entry keyed by its URL.
func (ix *Index) Put(e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return ix.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDownloads).Put([]byte(e.URL), raw)
	})
}

// Get retrieves the entry for a URL. Returns nil, nil when absent.
func (ix *Index) Get(url string) (*Entry, error) {
	var e *Entry
	err := ix.bolt.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketDownloads).Get([]byte(url))
		if raw == nil {
			return nil
		}
		e = &Entry{}
		return json.Unmarshal(raw, e)
	})
	if err != nil {
		return nil, fmt.Errorf("read cache entry %q: %w", url, err)
	}
	return e, nil
}

// Delete removes the entry for a URL.
func (ix *Index) Delete(url string) error {
	return ix.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDownloads).Delete([]byte(url))
	})
}

// List returns all entries in key order.
func (ix *Index) List() ([]Entry, error) {
	var out []Entry
	err := ix.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDownloads).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshal cache entry %q: %w", k, err)
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}
