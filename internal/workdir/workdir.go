// Package workdir resolves the directory containing the .wo state, walking
// up from the working directory so wo can be run from anywhere inside the
// project tree.
package workdir

import (
	"os"
	"path/filepath"
)

const stateDirName = ".wo"

// Resolve walks up from start looking for a directory containing .wo.
// Returns start unchanged when nothing is found; callers that need existing
// state get their error from db.Open.
func Resolve(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, stateDirName)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// HasState reports whether dir already contains a .wo directory.
func HasState(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, stateDirName))
	return err == nil && info.IsDir()
}
