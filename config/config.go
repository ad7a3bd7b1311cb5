// Package config loads lemon-tree.yaml and lemon-tree.toml configuration.
//
// The config file lives in the project root and declares the languages,
// where each language's catalog is stored, the translation provider and
// optional hook scripts. Process-level switches come from LT_* variables.
package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

var (
	// ErrConfig wraps every validation failure of the config file.
	ErrConfig = errors.New("invalid configuration")
	// ErrNotFound is returned when no config file exists.
	ErrNotFound = errors.New("config file not found")
)

// Env holds the LT_* process environment.
type Env struct {
	// Config is an explicit config file path.
	Config string `env:"LT_CONFIG"`
	// AutoYes answers every prompt with "yes to all".
	AutoYes bool `env:"LT_AUTO_YES" envDefault:"false"`
	// Verbose enables debug logging.
	Verbose bool `env:"LT_VERBOSE" envDefault:"false"`
	// MaxConcurrent overrides maxConcurrent from the config file.
	MaxConcurrent int `env:"LT_MAX_CONCURRENT" envDefault:"0"`
}

// FromEnv reads Env from the process environment.
func FromEnv() (Env, error) {
	return env.ParseAs[Env]()
}
