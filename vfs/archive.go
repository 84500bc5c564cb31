package vfs

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// Format identifies an archive container detected by magic bytes.
type Format int

const (
	FormatRaw Format = iota
	FormatZip
	FormatSevenZip
	FormatGzip
	FormatRAR
)

var (
	magicZIP    = []byte{'P', 'K', 0x03, 0x04}
	magicZIPEnd = []byte{'P', 'K', 0x05, 0x06} // empty archive
	magic7z     = []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{'R', 'a', 'r', '!', 0x1A, 0x07}
)

func hasPrefix(data, magic []byte) bool {
	return len(data) >= len(magic) && bytes.Equal(data[:len(magic)], magic)
}

// DetectFormat inspects a header (at least 8 bytes, fewer is fine) and
// reports which archive container it belongs to, or FormatRaw if none of
// the known magic numbers match.
func DetectFormat(header []byte) Format {
	switch {
	case hasPrefix(header, magic7z):
		return FormatSevenZip
	case hasPrefix(header, magicRAR):
		return FormatRAR
	case hasPrefix(header, magicZIP), hasPrefix(header, magicZIPEnd):
		return FormatZip
	case hasPrefix(header, magicGzip):
		return FormatGzip
	default:
		return FormatRaw
	}
}

// OpenROM opens path, detects its container format, and returns a Dir over
// its members (a single-entry Dir for a raw file or a gzip stream).
func OpenROM(path string) (Dir, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 8)
	n, _ := io.ReadFull(f, header)
	header = header[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	switch DetectFormat(header) {
	case FormatZip:
		defer f.Close()
		return openZipDir(path)
	case FormatSevenZip:
		defer f.Close()
		return openSevenZipDir(path)
	case FormatRAR:
		return openRARDir(f)
	case FormatGzip:
		return openGzipDir(f, path)
	default:
		return openRawDir(f, path)
	}
}

// --- raw, single-file fallback ---

type rawDir struct {
	name string
	f    *os.File
	done bool
}

func openRawDir(f *os.File, path string) (Dir, error) {
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	_ = info
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}
	return &rawDir{name: base, f: f}, nil
}

func (d *rawDir) Rewind() { d.done = false }

func (d *rawDir) Next() (Entry, bool) {
	if d.done {
		return Entry{}, false
	}
	d.done = true
	info, err := d.f.Stat()
	if err != nil {
		return Entry{}, false
	}
	return Entry{Name: d.name, Size: info.Size()}, true
}

func (d *rawDir) Open(name string) (File, error) {
	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return d.f, nil
}

func (d *rawDir) Close() error { return d.f.Close() }

// --- zip ---

type zipDir struct {
	zr      *zip.ReadCloser
	entries []*zip.File
	pos     int
}

func openZipDir(path string) (Dir, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	entries := make([]*zip.File, 0, len(zr.File))
	for _, file := range zr.File {
		if !file.FileInfo().IsDir() {
			entries = append(entries, file)
		}
	}
	return &zipDir{zr: zr, entries: entries}, nil
}

func (d *zipDir) Rewind() { d.pos = 0 }

func (d *zipDir) Next() (Entry, bool) {
	if d.pos >= len(d.entries) {
		return Entry{}, false
	}
	f := d.entries[d.pos]
	d.pos++
	return Entry{Name: f.Name, Size: int64(f.UncompressedSize64)}, true
}

func (d *zipDir) Open(name string) (File, error) {
	for _, f := range d.entries {
		if f.Name == name {
			r, err := f.Open()
			if err != nil {
				return nil, err
			}
			data, err := limitedRead(r)
			r.Close()
			if err != nil {
				return nil, err
			}
			return newMemFile(data), nil
		}
	}
	return nil, fmt.Errorf("vfs: %q not found in zip archive", name)
}

func (d *zipDir) Close() error { return d.zr.Close() }

// --- 7z ---

type sevenZipDir struct {
	closer  io.Closer
	r       *sevenzip.Reader
	entries []*sevenzip.File
	pos     int
}

func openSevenZipDir(path string) (Dir, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	r, err := sevenzip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	entries := make([]*sevenzip.File, 0, len(r.File))
	for _, file := range r.File {
		if !file.FileInfo().IsDir() {
			entries = append(entries, file)
		}
	}
	return &sevenZipDir{closer: f, r: r, entries: entries}, nil
}

func (d *sevenZipDir) Rewind() { d.pos = 0 }

func (d *sevenZipDir) Next() (Entry, bool) {
	if d.pos >= len(d.entries) {
		return Entry{}, false
	}
	f := d.entries[d.pos]
	d.pos++
	return Entry{Name: f.Name, Size: int64(f.UncompressedSize)}, true
}

func (d *sevenZipDir) Open(name string) (File, error) {
	for _, f := range d.entries {
		if f.Name == name {
			r, err := f.Open()
			if err != nil {
				return nil, err
			}
			data, err := limitedRead(r)
			r.Close()
			if err != nil {
				return nil, err
			}
			return newMemFile(data), nil
		}
	}
	return nil, fmt.Errorf("vfs: %q not found in 7z archive", name)
}

func (d *sevenZipDir) Close() error { return d.closer.Close() }

// --- gzip: a single compressed stream, treated as a one-entry Dir ---

type gzipDir struct {
	f    *os.File
	name string
	done bool
}

func openGzipDir(f *os.File, path string) (Dir, error) {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}
	base = strings.TrimSuffix(base, ".gz")
	return &gzipDir{f: f, name: base}, nil
}

func (d *gzipDir) Rewind() { d.done = false }

func (d *gzipDir) Next() (Entry, bool) {
	if d.done {
		return Entry{}, false
	}
	d.done = true
	return Entry{Name: d.name, Size: -1}, true
}

func (d *gzipDir) Open(name string) (File, error) {
	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	gr, err := gzip.NewReader(d.f)
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	data, err := limitedRead(gr)
	if err != nil {
		return nil, err
	}
	return newMemFile(data), nil
}

func (d *gzipDir) Close() error { return d.f.Close() }

// --- rar: rardecode/v2 exposes a forward-only Reader, so entries are
// enumerated eagerly into memory on open. ---

type rarEntry struct {
	name string
	data []byte
}

type rarDir struct {
	closer  io.Closer
	entries []rarEntry
	pos     int
}

func openRARDir(f *os.File) (Dir, error) {
	rr, err := rardecode.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	var entries []rarEntry
	for {
		hdr, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			f.Close()
			return nil, err
		}
		if hdr.IsDir {
			continue
		}
		data, err := limitedRead(rr)
		if err != nil {
			f.Close()
			return nil, err
		}
		entries = append(entries, rarEntry{name: hdr.Name, data: data})
	}
	return &rarDir{closer: f, entries: entries}, nil
}

func (d *rarDir) Rewind() { d.pos = 0 }

func (d *rarDir) Next() (Entry, bool) {
	if d.pos >= len(d.entries) {
		return Entry{}, false
	}
	e := d.entries[d.pos]
	d.pos++
	return Entry{Name: e.name, Size: int64(len(e.data))}, true
}

func (d *rarDir) Open(name string) (File, error) {
	for _, e := range d.entries {
		if e.name == name {
			return newMemFile(e.data), nil
		}
	}
	return nil, fmt.Errorf("vfs: %q not found in rar archive", name)
}

func (d *rarDir) Close() error { return d.closer.Close() }
