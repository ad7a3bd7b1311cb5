package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CasingResult describes what ResolveCasing did in a directory.
type CasingResult struct {
	// RenamedFrom is the path of the file renamed to the wanted name, if any.
	RenamedFrom string
	// RenamedTo is the wanted path.
	RenamedTo string
	// Conflicts lists every file name that differs from the wanted name only
	// by casing. More than one entry means the rename was ambiguous.
	Conflicts []string
}

// Renamed reports whether a file was renamed.
func (r CasingResult) Renamed() bool { return r.RenamedFrom != "" }

// Ambiguous reports whether several files competed for the wanted name.
func (r CasingResult) Ambiguous() bool { return len(r.Conflicts) > 1 }

// ResolveCasing looks in dir for files named like base except for casing.
// The first such file is renamed to base so that a changed file pattern
// keeps using the existing catalog. Nothing is renamed when base itself
// exists. A missing dir is not an error.
func ResolveCasing(dir, base string) (CasingResult, error) {
	var res CasingResult

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, fmt.Errorf("reading %s: %w", dir, err)
	}

	exact := false
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case name == base:
			exact = true
		case strings.EqualFold(name, base):
			res.Conflicts = append(res.Conflicts, name)
		}
	}
	if len(res.Conflicts) == 0 || exact {
		return res, nil
	}

	oldPath := filepath.Join(dir, res.Conflicts[0])
	newPath := filepath.Join(dir, base)
	if err := os.Rename(oldPath, newPath); err != nil {
		return res, fmt.Errorf("renaming %s to %s: %w", oldPath, newPath, err)
	}
	res.RenamedFrom = oldPath
	res.RenamedTo = newPath
	return res, nil
}
