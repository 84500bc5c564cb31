package vfs

// Resolved holds the artifacts bootstrap needs to hand to the engine: a
// ROM file, and optionally a sibling patch.
type Resolved struct {
	ROM      File
	ROMName  string
	Patch    File
	PatchSet bool
}

// ResolveROM scans dir front-to-back for the first ROM-shaped entry and,
// if present, a sibling patch-shaped entry, opening both. It returns
// ErrNoROMFile if no candidate is found.
func ResolveROM(dir Dir) (Resolved, error) {
	romEntry, ok := FindFirst(dir, IsROMFile)
	if !ok {
		return Resolved{}, ErrNoROMFile
	}
	rom, err := dir.Open(romEntry.Name)
	if err != nil {
		return Resolved{}, err
	}

	result := Resolved{ROM: rom, ROMName: romEntry.Name}

	if patchEntry, ok := FindFirst(dir, IsPatchFile); ok {
		patch, err := dir.Open(patchEntry.Name)
		if err == nil {
			result.Patch = patch
			result.PatchSet = true
		}
	}

	return result, nil
}
