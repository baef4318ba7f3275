package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/eadimport/pkg/adapters/fs"
)

// ProfileName is the run profile looked up at a vault root.
const ProfileName = "eadimport.yaml"

// FindRoot walks up from startDir to the first directory holding a vault
// index, a .git directory or a run profile.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for dir := abs; ; {
		if hasFile(dir, fs.DefaultSystemDir) || hasFile(dir, ".git") || hasFile(dir, ProfileName) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
