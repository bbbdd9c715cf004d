package record

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrCorruptBlock is returned when a block header declares more bytes
// than the file still holds. Scans must stop on it rather than guess at
// the next block boundary.
var ErrCorruptBlock = errors.New("corrupt block")

// Record represents one key/value pair as stored in the bucket file.
// Keys carry no uniqueness constraint; duplicate keys coexist as
// distinct records.
type Record struct {
	Key   []byte
	Value []byte
}

// Size returns the encoded size of the record in bytes.
func (r Record) Size() int64 {
	return int64(HeaderSize + len(r.Key) + len(r.Value))
}

// Encode serializes a record into one block.
// Format: [4 bytes KeyLen][4 bytes ValueLen][Key][Value], little-endian lengths.
func Encode(r Record) []byte {
	keyLen := len(r.Key)
	valueLen := len(r.Value)

	buf := make([]byte, HeaderSize+keyLen+valueLen)
	binary.LittleEndian.PutUint32(buf[0:LengthSize], uint32(keyLen))
	binary.LittleEndian.PutUint32(buf[LengthSize:HeaderSize], uint32(valueLen))
	copy(buf[HeaderSize:], r.Key)
	if valueLen > 0 {
		copy(buf[HeaderSize+keyLen:], r.Value)
	}

	return buf
}

// Read decodes a single block from a buffered reader and reports the
// number of bytes consumed. Used for sequential scans.
//
// Fewer than HeaderSize bytes remaining is normal end of input and
// returns io.EOF. A complete header whose declared key and value bytes
// do not fully exist returns ErrCorruptBlock.
func Read(r *bufio.Reader) (Record, int64, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Record{}, 0, io.EOF
		}
		return Record{}, 0, fmt.Errorf("read block header: %w", err)
	}

	keyLen := binary.LittleEndian.Uint32(header[0:LengthSize])
	valueLen := binary.LittleEndian.Uint32(header[LengthSize:HeaderSize])

	key := make([]byte, keyLen)
	if n, err := io.ReadFull(r, key); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Record{}, 0, fmt.Errorf("%w: key truncated at %d of %d bytes", ErrCorruptBlock, n, keyLen)
		}
		return Record{}, 0, fmt.Errorf("read key: %w", err)
	}

	value := make([]byte, valueLen)
	if n, err := io.ReadFull(r, value); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Record{}, 0, fmt.Errorf("%w: value truncated at %d of %d bytes", ErrCorruptBlock, n, valueLen)
		}
		return Record{}, 0, fmt.Errorf("read value: %w", err)
	}

	rec := Record{Key: key, Value: value}
	return rec, rec.Size(), nil
}
