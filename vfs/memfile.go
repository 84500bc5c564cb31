package vfs

import (
	"bytes"
	"errors"
)

// memFile is a File over bytes already extracted into memory — the shape
// every archive-backed entry takes once decompressed, since none of the
// supported archive readers provide random-access seeking on the
// compressed stream itself.
type memFile struct {
	r      *bytes.Reader
	closed bool
}

func newMemFile(data []byte) *memFile {
	return &memFile{r: bytes.NewReader(data)}
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.closed {
		return 0, errors.New("vfs: read from closed file")
	}
	return m.r.Read(p)
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	if m.closed {
		return 0, errors.New("vfs: seek on closed file")
	}
	return m.r.Seek(offset, whence)
}

func (m *memFile) Write([]byte) (int, error) {
	return 0, errors.New("vfs: archive entries are read-only")
}

func (m *memFile) Close() error {
	m.closed = true
	return nil
}
