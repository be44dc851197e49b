package fileutil

import (
	"os"
	"path/filepath"
)

// WriteFile writes data to path, creating parent directories and replacing
// any existing content.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
