package vfs_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/orion-emu/gbasup/vfs"
)

// TestOSDirListsFilesNotDirectories verifies OpenOSDir enumerates only
// the plain files immediately under a directory, skipping subdirectories.
func TestOSDirListsFilesNotDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "game.gba"), []byte("rom"))
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("notes"))
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	d, err := vfs.OpenOSDir(dir)
	if err != nil {
		t.Fatalf("OpenOSDir failed: %v", err)
	}
	defer d.Close()

	names := map[string]bool{}
	for {
		entry, ok := d.Next()
		if !ok {
			break
		}
		names[entry.Name] = true
	}

	if !names["game.gba"] || !names["readme.txt"] {
		t.Errorf("missing expected files, got %v", names)
	}
	if names["subdir"] {
		t.Error("OSDir listed a subdirectory as an entry")
	}
}

// TestOSDirRewindRestartsIteration verifies Rewind resets Next to the
// first entry.
func TestOSDirRewindRestartsIteration(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.gba"), []byte("a"))
	writeFile(t, filepath.Join(dir, "b.gba"), []byte("b"))

	d, err := vfs.OpenOSDir(dir)
	if err != nil {
		t.Fatalf("OpenOSDir failed: %v", err)
	}
	defer d.Close()

	first, _ := d.Next()
	d.Next()
	d.Rewind()
	again, _ := d.Next()

	if first.Name != again.Name {
		t.Errorf("Rewind did not restart iteration: first=%q, again=%q", first.Name, again.Name)
	}
}

// TestOSDirOpenReadsContent verifies Open returns a handle whose content
// matches what was written to disk.
func TestOSDirOpenReadsContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "game.gba"), []byte("cartridge-bytes"))

	d, err := vfs.OpenOSDir(dir)
	if err != nil {
		t.Fatalf("OpenOSDir failed: %v", err)
	}
	defer d.Close()

	f, err := d.Open("game.gba")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "cartridge-bytes" {
		t.Errorf("content = %q, want %q", data, "cartridge-bytes")
	}
}

// TestOpenOptionalSiblingCreatesWhenAbsent verifies a save file that
// doesn't exist yet is created empty rather than erroring.
func TestOpenOptionalSiblingCreatesWhenAbsent(t *testing.T) {
	dir := t.TempDir()

	f, err := vfs.OpenOptionalSibling(dir, "game", "sav")
	if err != nil {
		t.Fatalf("OpenOptionalSibling failed: %v", err)
	}
	defer f.Close()

	if _, err := os.Stat(filepath.Join(dir, "game.sav")); err != nil {
		t.Errorf("save file was not created on disk: %v", err)
	}
}

// TestOpenOptionalSiblingOpensExisting verifies an already-present save
// file is opened rather than truncated.
func TestOpenOptionalSiblingOpensExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "game.sav"), []byte("save-data"))

	f, err := vfs.OpenOptionalSibling(dir, "game", "sav")
	if err != nil {
		t.Fatalf("OpenOptionalSibling failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "save-data" {
		t.Errorf("existing save file was truncated, got %q", data)
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
