package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed default.yaml
var defaultConfig []byte

// DefaultConfig returns the config written by WriteDefault.
func DefaultConfig() []byte {
	return append([]byte(nil), defaultConfig...)
}

// WriteDefault creates lemon-tree.yaml in dir. It reports false when a
// config file already exists.
func WriteDefault(dir string) (bool, error) {
	if _, err := Find(dir); err == nil {
		return false, nil
	}
	path := filepath.Join(dir, YAMLFileName)
	if err := os.WriteFile(path, defaultConfig, 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
