// Package dsostore reads and writes DSO containers on disk.
package dsostore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/samcharles93/dsotools/pkg/dso"
)

// BackupSuffix is appended to the replaced path when WriteOptions.Backup is set.
const BackupSuffix = ".bak"

var ErrNotRegular = errors.New("dsostore: not a regular file")

// WriteOptions controls Write.
type WriteOptions struct {
	// Backup keeps the previous file at path+BackupSuffix.
	Backup bool
	// Mode is used when path does not exist yet. Zero means 0o644.
	Mode os.FileMode
}

// Open decodes the container stored at path. The file is mapped read-only
// when possible; the mapping is released before Open returns since the
// decoded container owns copies of everything it keeps.
func Open(path string) (*dso.Container, error) {
	data, release, err := load(path)
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := dso.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return c, nil
}

func load(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if !stat.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, nil, fmt.Errorf("%s: file too large (%d bytes)", path, size64)
	}
	size := int(size64)
	if size == 0 {
		// mmap rejects zero-length mappings; let the decoder report truncation.
		return []byte{}, func() {}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return data, func() { _ = unix.Munmap(data) }, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Write encodes c and replaces path with the result. The new content is
// staged in a temporary file next to path and renamed into place, so readers
// see either the old or the new file.
func Write(path string, c *dso.Container, opts WriteOptions) error {
	data, err := c.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	mode := opts.Mode
	if mode == 0 {
		mode = 0o644
	}
	existing, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if !existing.Mode().IsRegular() {
			return fmt.Errorf("%s: %w", path, ErrNotRegular)
		}
		mode = existing.Mode().Perm()
	case errors.Is(statErr, os.ErrNotExist):
		existing = nil
	default:
		return statErr
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := writeFull(tmp, data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}

	if opts.Backup && existing != nil {
		if err := os.Rename(path, path+BackupSuffix); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

// Equal reports whether the file at path holds exactly the encoding of c.
func Equal(path string, c *dso.Container) (bool, error) {
	want, err := c.Encode()
	if err != nil {
		return false, err
	}
	got, release, err := load(path)
	if err != nil {
		return false, err
	}
	defer release()
	return bytes.Equal(got, want), nil
}

func writeFull(f *os.File, p []byte) error {
	for len(p) > 0 {
		n, err := f.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
