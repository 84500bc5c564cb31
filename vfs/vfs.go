// Package vfs provides the abstract virtual file and virtual directory
// surface the lifecycle bootstrap consumes when resolving ROM, BIOS, patch
// and save artifacts, plus a concrete loader that auto-detects archive
// formats (zip, 7z, gzip, rar) by magic bytes.
package vfs

import (
	"errors"
	"io"
)

// File is a seekable, closable handle to artifact bytes, whether backed by
// a plain file on disk or an entry inside an archive.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// Entry describes one member of a Dir without opening it.
type Entry struct {
	Name string
	Size int64
}

// Dir is an abstract virtual directory: a game directory on disk, or an
// archive treated as a directory of candidate ROM/patch files.
type Dir interface {
	// Rewind resets iteration to the first entry.
	Rewind()
	// Next advances to and returns the next entry, or ok=false when
	// iteration is exhausted.
	Next() (Entry, bool)
	// Open opens a member by name.
	Open(name string) (File, error)
	Close() error
}

var (
	// ErrNoROMFile is returned when no candidate ROM could be identified.
	ErrNoROMFile = errors.New("vfs: no ROM file found")
	// ErrUnsupportedFormat names an archive format this package cannot
	// read. OpenROM does not return it: a header matching no known magic
	// bytes is opened as a raw file.
	ErrUnsupportedFormat = errors.New("vfs: unsupported archive format")
	// ErrFileTooLarge is returned when a candidate exceeds maxROMSize.
	ErrFileTooLarge = errors.New("vfs: file exceeds maximum ROM size")
)

// maxROMSize bounds how much of a candidate file gets read before giving
// up, so a corrupt or mislabeled archive member can't exhaust memory.
const maxROMSize = 32 * 1024 * 1024

// romExtensions are the extensions considered ROM-shaped when scanning a
// directory for the first candidate.
var romExtensions = []string{".gba", ".agb", ".bin"}

// patchExtensions are considered patch-shaped.
var patchExtensions = []string{".ups", ".ips", ".bps"}

func hasAnyExt(name string, exts []string) bool {
	for _, ext := range exts {
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsROMFile reports whether name looks like a ROM by extension.
func IsROMFile(name string) bool { return hasAnyExt(name, romExtensions) }

// IsPatchFile reports whether name looks like a patch by extension.
func IsPatchFile(name string) bool { return hasAnyExt(name, patchExtensions) }

// FindFirst scans dir front-to-back and returns the first entry whose name
// satisfies match, or ok=false if none does.
func FindFirst(dir Dir, match func(name string) bool) (Entry, bool) {
	dir.Rewind()
	for {
		entry, ok := dir.Next()
		if !ok {
			return Entry{}, false
		}
		if match(entry.Name) {
			return entry, true
		}
	}
}

// limitedRead reads at most maxROMSize+1 bytes from r, returning
// ErrFileTooLarge if more was available.
func limitedRead(r io.Reader) ([]byte, error) {
	limited := io.LimitReader(r, maxROMSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(data) > maxROMSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
