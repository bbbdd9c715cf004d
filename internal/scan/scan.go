// Package scan implements sequential traversal of a bucket file.
package scan

import (
	"bufio"
	"fmt"
	"io"

	"github.com/MikhailWahib/blockbucket/internal/record"
)

// Item pairs a decoded record with its byte span in the file.
type Item struct {
	Record record.Record
	// Start is the byte offset of the record's block.
	Start int64
	// End is the byte offset immediately after the block.
	End int64
}

// Scanner walks a file from a starting byte offset, decoding one block
// at a time. Each scan owns its own read position; nothing is shared
// across scans.
type Scanner struct {
	r      *bufio.Reader
	offset int64
}

// New positions src at offset and returns a scanner over the blocks
// that follow.
func New(src io.ReadSeeker, offset int64) (*Scanner, error) {
	if _, err := src.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to scan start: %w", err)
	}
	return &Scanner{
		r:      bufio.NewReader(src),
		offset: offset,
	}, nil
}

// Next decodes the next record. It returns io.EOF at clean end of
// input and record.ErrCorruptBlock if a block header declares more
// bytes than remain.
func (s *Scanner) Next() (Item, error) {
	rec, n, err := record.Read(s.r)
	if err != nil {
		return Item{}, err
	}

	item := Item{
		Record: rec,
		Start:  s.offset,
		End:    s.offset + n,
	}
	s.offset = item.End
	return item, nil
}
