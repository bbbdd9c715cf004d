package rewrite_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/MikhailWahib/blockbucket/internal/record"
	"github.com/MikhailWahib/blockbucket/internal/rewrite"
	"github.com/MikhailWahib/blockbucket/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, recs []record.Record) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	var buf bytes.Buffer
	for _, r := range recs {
		buf.Write(record.Encode(r))
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func readAll(t *testing.T, path string) []record.Record {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	s, err := scan.New(f, 0)
	require.NoError(t, err)

	var recs []record.Record
	for {
		item, err := s.Next()
		if err == io.EOF {
			return recs
		}
		require.NoError(t, err)
		recs = append(recs, item.Record)
	}
}

func TestRewriteDropsByPredicate(t *testing.T) {
	path := writeFile(t, []record.Record{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("a"), Value: []byte("3")},
	})

	err := rewrite.Rewrite(path, 0644, true, func(rec record.Record, _ int) bool {
		return !bytes.Equal(rec.Key, []byte("a"))
	})
	require.NoError(t, err)

	recs := readAll(t, path)
	require.Len(t, recs, 1)
	assert.Equal(t, []byte("b"), recs[0].Key)
}

func TestRewritePreservesOrder(t *testing.T) {
	path := writeFile(t, []record.Record{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("c"), Value: []byte("3")},
		{Key: []byte("d"), Value: []byte("4")},
	})

	// Drop by position, keeping first and last.
	err := rewrite.Rewrite(path, 0644, true, func(_ record.Record, pos int) bool {
		return pos == 0 || pos == 3
	})
	require.NoError(t, err)

	recs := readAll(t, path)
	require.Len(t, recs, 2)
	assert.Equal(t, []byte("a"), recs[0].Key)
	assert.Equal(t, []byte("d"), recs[1].Key)
}

func TestRewriteKeepAllIsNoOp(t *testing.T) {
	original := []record.Record{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	}
	path := writeFile(t, original)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = rewrite.Rewrite(path, 0644, true, func(record.Record, int) bool { return true })
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRewriteEmptyFile(t *testing.T) {
	path := writeFile(t, nil)

	err := rewrite.Rewrite(path, 0644, true, func(record.Record, int) bool { return false })
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestRewriteCorruptFileLeavesOriginalUntouched(t *testing.T) {
	path := writeFile(t, []record.Record{{Key: []byte("a"), Value: []byte("1")}})

	// Append a complete header that declares a body that is not there.
	corrupt := record.Encode(record.Record{Key: []byte("bb"), Value: []byte("22")})
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write(corrupt[:record.HeaderSize+1])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = rewrite.Rewrite(path, 0644, true, func(record.Record, int) bool { return false })
	require.ErrorIs(t, err, record.ErrCorruptBlock)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed rewrite must not modify the file")

	// No temp file left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRewritePositionsArePassedInFileOrder(t *testing.T) {
	path := writeFile(t, []record.Record{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("c"), Value: []byte("3")},
	})

	var positions []int
	err := rewrite.Rewrite(path, 0644, false, func(_ record.Record, pos int) bool {
		positions = append(positions, pos)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, positions)
}
