// Package bucket implements the store's operation set over a single
// record file.
package bucket

import (
	"bytes"
	"fmt"
	"io"
	"os"

	logging "github.com/ipfs/go-log/v2"

	"github.com/MikhailWahib/blockbucket/internal/config"
	"github.com/MikhailWahib/blockbucket/internal/record"
	"github.com/MikhailWahib/blockbucket/internal/rewrite"
	"github.com/MikhailWahib/blockbucket/internal/scan"
)

var log = logging.Logger("blockbucket")

// Bucket is a handle bound to one file path. It holds no cached state
// between calls: every operation opens the file, scans or rewrites it,
// and releases all handles before returning. The file is the only
// persistent state.
//
// The store takes no locks. Callers must externally serialize all
// mutating calls against one file; two concurrent rewrites can race on
// the replace step and the loser's result is based on a stale snapshot.
type Bucket struct {
	path string
	cfg  *config.Config
}

// Open binds a bucket to path, creating an empty file if none exists.
func Open(path string, cfg *config.Config) (*Bucket, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.FillDefaults()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, cfg.FileMode)
	if err != nil {
		return nil, fmt.Errorf("open bucket file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close bucket file: %w", err)
	}

	return &Bucket{path: path, cfg: cfg}, nil
}

// Path returns the file path the bucket is bound to.
func (b *Bucket) Path() string { return b.path }

// Set appends one record to the end of the file. Existing records with
// the same key are left in place; duplicates coexist.
func (b *Bucket) Set(key, value []byte) error {
	return b.append(record.Encode(record.Record{Key: key, Value: value}))
}

// SetMany encodes all items into one buffer and appends it with a
// single write call, preserving input order as file order.
func (b *Bucket) SetMany(items []record.Record) error {
	var buf bytes.Buffer
	for _, item := range items {
		buf.Write(record.Encode(item))
	}
	return b.append(buf.Bytes())
}

// Get returns the first record in file order whose key equals key.
// A miss is reported as two empty byte slices with a nil error; callers
// must check both to distinguish a miss from a stored empty value under
// an empty key.
func (b *Bucket) Get(key []byte) ([]byte, []byte, error) {
	foundKey, foundValue := []byte{}, []byte{}
	err := b.scanAll(func(item scan.Item) bool {
		if bytes.Equal(item.Record.Key, key) {
			foundKey = item.Record.Key
			foundValue = item.Record.Value
			return false
		}
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	return foundKey, foundValue, nil
}

// Delete removes every record whose key equals key, not just the
// first. Deleting an absent key rewrites the file unchanged.
func (b *Bucket) Delete(key []byte) error {
	return b.rewrite(func(rec record.Record, _ int) bool {
		return !bytes.Equal(rec.Key, key)
	})
}

// List returns up to limit records in file order.
func (b *Bucket) List(limit int) ([]record.Record, error) {
	return b.ListNext(limit, 0)
}

// ListNext skips the first skip records and returns up to the next
// limit in file order. Pagination is stateless: every call re-scans
// from the start, so successive pages cost O(skip+limit) each.
func (b *Bucket) ListNext(limit, skip int) ([]record.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	if skip < 0 {
		skip = 0
	}

	var recs []record.Record
	skipped := 0
	err := b.scanAll(func(item scan.Item) bool {
		if skipped < skip {
			skipped++
			return true
		}
		recs = append(recs, item.Record)
		return len(recs) < limit
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// FindNext locates the first record whose key equals key and returns a
// window of up to limit records starting there. With onlyAfterKey the
// window starts at the record immediately after the match instead. If
// no record matches, the result is empty.
func (b *Bucket) FindNext(key []byte, limit int, onlyAfterKey bool) ([]record.Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	var recs []record.Record
	found := false
	err := b.scanAll(func(item scan.Item) bool {
		if !found {
			if !bytes.Equal(item.Record.Key, key) {
				return true
			}
			found = true
			if onlyAfterKey {
				return true
			}
		}
		recs = append(recs, item.Record)
		return len(recs) < limit
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteTo removes every record strictly before the first one whose
// key equals key. With alsoDeleteFound the found record is removed as
// well. An unmatched key is a no-op: the file is left unchanged.
func (b *Bucket) DeleteTo(key []byte, alsoDeleteFound bool) error {
	foundPos := -1
	pos := 0
	err := b.scanAll(func(item scan.Item) bool {
		if bytes.Equal(item.Record.Key, key) {
			foundPos = pos
			return false
		}
		pos++
		return true
	})
	if err != nil {
		return err
	}
	if foundPos < 0 {
		return nil
	}

	keepFrom := foundPos
	if alsoDeleteFound {
		keepFrom++
	}
	return b.rewrite(func(_ record.Record, p int) bool {
		return p >= keepFrom
	})
}

// ListLockDelete reads the first limit records in file order and
// removes exactly those records in the same rewrite, queue-style. The
// dropped set is selected by position, so duplicate keys among the
// popped records never cause over-deletion. The read and the delete
// share one scan, so a caller cannot race against itself; serialization
// against other instances remains the caller's job.
func (b *Bucket) ListLockDelete(limit int) ([]record.Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	var popped []record.Record
	err := b.rewrite(func(rec record.Record, pos int) bool {
		if pos < limit {
			popped = append(popped, rec)
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return popped, nil
}

// append writes an already-encoded run of blocks to the end of the file.
func (b *Bucket) append(blocks []byte) error {
	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, b.cfg.FileMode)
	if err != nil {
		return fmt.Errorf("open for append: %w", err)
	}
	if _, err := f.Write(blocks); err != nil {
		_ = f.Close()
		return fmt.Errorf("append blocks: %w", err)
	}
	if b.cfg.SyncWrites {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return fmt.Errorf("sync after append: %w", err)
		}
	}
	return f.Close()
}

// scanAll opens the file and invokes fn for each record in file order
// until fn returns false or the file ends.
func (b *Bucket) scanAll(fn func(item scan.Item) bool) error {
	f, err := os.Open(b.path)
	if err != nil {
		return fmt.Errorf("open for scan: %w", err)
	}
	defer f.Close()

	s, err := scan.New(f, 0)
	if err != nil {
		return err
	}
	for {
		item, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !fn(item) {
			return nil
		}
	}
}

func (b *Bucket) rewrite(keep rewrite.KeepFunc) error {
	if err := rewrite.Rewrite(b.path, b.cfg.FileMode, b.cfg.SyncWrites, keep); err != nil {
		return err
	}
	log.Debugw("bucket file rewritten", "path", b.path)
	return nil
}
