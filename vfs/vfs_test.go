package vfs_test

import (
	"testing"

	"github.com/orion-emu/gbasup/vfs"
)

// TestIsROMFile verifies the extension allowlist used to recognize
// candidate ROM files when scanning a game directory.
func TestIsROMFile(t *testing.T) {
	cases := map[string]bool{
		"game.gba":    true,
		"game.agb":    true,
		"game.bin":    true,
		"GAME.GBA":    false, // case-sensitive, matching the teacher's extension checks elsewhere
		"readme.txt":  false,
		"game.gba.gz": false,
	}
	for name, want := range cases {
		if got := vfs.IsROMFile(name); got != want {
			t.Errorf("IsROMFile(%q) = %v, want %v", name, got, want)
		}
	}
}

// TestIsPatchFile verifies the patch extension allowlist.
func TestIsPatchFile(t *testing.T) {
	cases := map[string]bool{
		"game.ups":  true,
		"game.ips":  true,
		"game.bps":  true,
		"game.gba":  false,
		"patch.UPS": false,
	}
	for name, want := range cases {
		if got := vfs.IsPatchFile(name); got != want {
			t.Errorf("IsPatchFile(%q) = %v, want %v", name, got, want)
		}
	}
}

// fakeDir is a minimal in-memory Dir for exercising FindFirst without
// touching the filesystem.
type fakeDir struct {
	entries []string
	pos     int
}

func (d *fakeDir) Rewind() { d.pos = 0 }

func (d *fakeDir) Next() (vfs.Entry, bool) {
	if d.pos >= len(d.entries) {
		return vfs.Entry{}, false
	}
	name := d.entries[d.pos]
	d.pos++
	return vfs.Entry{Name: name}, true
}

func (d *fakeDir) Open(name string) (vfs.File, error) { return nil, nil }
func (d *fakeDir) Close() error                        { return nil }

// TestFindFirstReturnsFrontToBackMatch verifies FindFirst returns the
// first matching entry in iteration order, not just any match.
func TestFindFirstReturnsFrontToBackMatch(t *testing.T) {
	dir := &fakeDir{entries: []string{"readme.txt", "game.gba", "game2.gba"}}

	entry, ok := vfs.FindFirst(dir, vfs.IsROMFile)
	if !ok {
		t.Fatal("FindFirst found nothing")
	}
	if entry.Name != "game.gba" {
		t.Errorf("FindFirst returned %q, want %q", entry.Name, "game.gba")
	}
}

// TestFindFirstNoMatch verifies FindFirst reports ok=false when nothing
// in the directory matches.
func TestFindFirstNoMatch(t *testing.T) {
	dir := &fakeDir{entries: []string{"readme.txt", "cover.png"}}

	_, ok := vfs.FindFirst(dir, vfs.IsROMFile)
	if ok {
		t.Error("FindFirst found a match where there should be none")
	}
}
