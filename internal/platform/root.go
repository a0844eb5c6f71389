package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// DataDirName marks a project-local data directory.
const DataDirName = ".anotes"

// ErrNoDataDir is returned by FindDataDir when no ancestor holds a data directory.
var ErrNoDataDir = errors.New("no .anotes directory found")

// FindDataDir walks up from startDir looking for a .anotes directory and
// returns its absolute path.
func FindDataDir(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, DataDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoDataDir
		}
		dir = parent
	}
}
