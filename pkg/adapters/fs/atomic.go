package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// tempPrefix marks in-flight writes. Keys may not start with a dot, so a temp
// file can never be mistaken for a stored value.
const tempPrefix = ".anotes-tmp-"

// stage is a value written to a temp file next to its destination but not yet
// visible under its key.
type stage struct {
	tmp  *os.File
	dest string
	size int64
}

// newStage writes value to a temp file beside dest and syncs it.
// The caller must Commit or Discard the result.
func newStage(dest string, r io.Reader, perm os.FileMode) (*stage, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	st := &stage{tmp: tmp, dest: dest}

	st.size, err = io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if err == nil {
		err = tmp.Chmod(perm)
	}
	if err != nil {
		st.Discard()
		return nil, fmt.Errorf("failed to stage %s: %w", filepath.Base(dest), err)
	}
	return st, nil
}

// Size is the number of bytes staged.
func (st *stage) Size() int64 {
	return st.size
}

// Commit replaces the destination so readers observe either the old or the new
// value, never a partial one.
func (st *stage) Commit() error {
	if err := st.tmp.Close(); err != nil {
		st.Discard()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(st.tmp.Name(), st.dest); err != nil {
		st.Discard()
		return fmt.Errorf("failed to rename temp file to %s: %w", st.dest, err)
	}
	return nil
}

// Discard drops the staged value. Safe to call after a failed Commit.
func (st *stage) Discard() {
	st.tmp.Close()
	os.Remove(st.tmp.Name())
}
