// Package blockbucket is a minimal single-file key/value record store.
//
// A bucket stores opaque byte keys and values in one flat binary file
// as a back-to-back sequence of length-prefixed blocks, in insertion
// order. Alongside set/get/delete it offers ordered listing, stateless
// pagination, windowed lookup around a key, ranged deletion up to a
// key, and a queue-style pop that reads and removes the oldest records
// in one call. It targets small, single-writer workloads such as a
// local task queue or append log where a full database is unwarranted.
//
// The store is intentionally simple: every operation is O(n) over the
// file, deletion rewrites the whole file, and there is no crash safety
// beyond what a successful write and rename give. It takes no locks;
// callers must externally serialize all mutating calls against one
// file, whether from other goroutines or other processes.
//
// Example usage:
//
//	bkt, err := blockbucket.Open("data.db", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	key := []byte("test-key-001")
//	value := []byte("hello blockbucket")
//
//	if err := bkt.Set(key, value); err != nil {
//		log.Printf("Set failed: %v", err)
//	}
//
//	k, v, err := bkt.Get(key)
//	if err != nil {
//		log.Printf("Get failed: %v", err)
//	}
//	if len(k) == 0 && len(v) == 0 {
//		log.Printf("not found")
//	}
//
//	err = bkt.Delete(key)
//
// Queue-style usage:
//
//	popped, err := bkt.ListLockDelete(10)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("popped=%d\n", len(popped))
package blockbucket

import (
	"github.com/MikhailWahib/blockbucket/internal/bucket"
	"github.com/MikhailWahib/blockbucket/internal/config"
	"github.com/MikhailWahib/blockbucket/internal/record"
)

// Config is an alias for config.Config, re-exported for user convenience.
type Config = config.Config

// DefaultConfig returns a Config struct populated with default values. Re-exported for user convenience.
var DefaultConfig = config.DefaultConfig

// Record is one key/value pair as stored in the bucket file.
type Record = record.Record

// Bucket is a handle bound to one bucket file.
//
// It caches nothing between calls; each operation independently opens,
// scans, and (when mutating) atomically replaces the file. Multiple
// Bucket values may point at the same path, but the store neither
// detects nor prevents concurrent access between them.
type Bucket struct {
	b *bucket.Bucket
}

// Open binds a bucket to the file at path, creating it empty if absent.
//
// Passing a nil cfg uses DefaultConfig.
func Open(path string, cfg *Config) (*Bucket, error) {
	b, err := bucket.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	return &Bucket{b: b}, nil
}

// Set appends one record to the end of the file. It does not check for
// or remove existing records with the same key.
func (bk *Bucket) Set(key, value []byte) error {
	return bk.b.Set(key, value)
}

// SetMany appends all items in one write call, preserving input order.
func (bk *Bucket) SetMany(items []Record) error {
	return bk.b.SetMany(items)
}

// Get returns the first record in file order whose key equals key.
//
// A miss is not an error: it is reported as two empty byte slices.
// Check both, since a stored empty value under an empty key is only
// distinguishable from a miss by that pair.
func (bk *Bucket) Get(key []byte) ([]byte, []byte, error) {
	return bk.b.Get(key)
}

// Delete removes all records whose key equals key. Deleting an absent
// key succeeds and leaves the record sequence unchanged.
func (bk *Bucket) Delete(key []byte) error {
	return bk.b.Delete(key)
}

// List returns up to limit records in file order.
func (bk *Bucket) List(limit int) ([]Record, error) {
	return bk.b.List(limit)
}

// ListNext skips the first skip records and returns up to the next
// limit, re-scanning from the start on every call.
func (bk *Bucket) ListNext(limit, skip int) ([]Record, error) {
	return bk.b.ListNext(limit, skip)
}

// FindNext returns up to limit records starting at the first record
// whose key equals key, or starting immediately after it when
// onlyAfterKey is true. An unmatched key yields an empty result.
func (bk *Bucket) FindNext(key []byte, limit int, onlyAfterKey bool) ([]Record, error) {
	return bk.b.FindNext(key, limit, onlyAfterKey)
}

// DeleteTo removes every record before the first one whose key equals
// key, and the found record too when alsoDeleteFound is true. An
// unmatched key is a no-op.
func (bk *Bucket) DeleteTo(key []byte, alsoDeleteFound bool) error {
	return bk.b.DeleteTo(key, alsoDeleteFound)
}

// ListLockDelete reads the first limit records and removes exactly
// those records, queue-style. The read and the delete happen within
// one call over one scan, so the caller cannot observe the popped
// records again through this handle; it does not guard against other
// Bucket values using the same file concurrently.
func (bk *Bucket) ListLockDelete(limit int) ([]Record, error) {
	return bk.b.ListLockDelete(limit)
}
