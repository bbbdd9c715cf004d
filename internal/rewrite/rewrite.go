// Package rewrite implements the filter-and-replace strategy used for
// all deletion in the store.
package rewrite

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/MikhailWahib/blockbucket/internal/record"
	"github.com/MikhailWahib/blockbucket/internal/scan"
)

// KeepFunc decides whether a record survives a rewrite. pos is the
// record's ordinal position in file order, starting at 0.
type KeepFunc func(rec record.Record, pos int) bool

// Rewrite streams the file at path through keep and replaces it with
// the kept records, preserving their relative order. The replacement
// is written to a temp file in the same directory and moved over the
// original with an atomic rename, so a failed rewrite leaves the
// original untouched. perm is applied to the replacement file; when
// sync is true it is fsynced before the rename.
func Rewrite(path string, perm os.FileMode, sync bool, keep KeepFunc) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open for rewrite: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".rewrite-*")
	if err != nil {
		return fmt.Errorf("create rewrite temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	s, err := scan.New(src, 0)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(tmp)
	pos := 0
	for {
		item, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("rewrite aborted: %w", err)
		}

		if keep(item.Record, pos) {
			if _, err := w.Write(record.Encode(item.Record)); err != nil {
				return fmt.Errorf("write kept record: %w", err)
			}
		}
		pos++
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush rewrite temp: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod rewrite temp: %w", err)
	}
	if sync {
		if err := tmp.Sync(); err != nil {
			return fmt.Errorf("sync rewrite temp: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		tmp = nil
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close rewrite temp: %w", err)
	}
	tmp = nil

	if err := atomic.ReplaceFile(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace original: %w", err)
	}
	return nil
}
