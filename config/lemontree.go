package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/lemontree/protect"
	"github.com/minios-linux/lemontree/translate"
)

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// File is the top-level lemon-tree config structure.
type File struct {
	// Languages lists every managed language, source language included.
	Languages []string `yaml:"languages" toml:"languages"`
	// SourceLanguage is the language texts are written in.
	SourceLanguage string `yaml:"sourceLanguage" toml:"sourceLanguage"`
	// CLILanguage forces the language of ltr's own messages.
	CLILanguage string `yaml:"cliLanguage,omitempty" toml:"cliLanguage,omitempty"`
	// NestedKeys writes new dotted keys as nested objects.
	NestedKeys bool `yaml:"nestedKeys,omitempty" toml:"nestedKeys,omitempty"`
	// MaxConcurrent bounds parallel provider calls (default 4).
	MaxConcurrent int `yaml:"maxConcurrent,omitempty" toml:"maxConcurrent,omitempty"`

	Default      Defaults           `yaml:"default" toml:"default"`
	Translations []LanguageOverride `yaml:"translations,omitempty" toml:"translations,omitempty"`
	API          API                `yaml:"api" toml:"api"`

	// PreScript commands run before set and delete.
	PreScript []string `yaml:"preScript,omitempty" toml:"preScript,omitempty"`
	// PostScript commands run after set and delete, with {{result}} and
	// {{action}} substituted.
	PostScript []string `yaml:"postScript,omitempty" toml:"postScript,omitempty"`

	// Root is the absolute directory of the config file.
	Root string `yaml:"-" toml:"-"`
	// Path is the config file path.
	Path string `yaml:"-" toml:"-"`
}

// Defaults applies to every language without an override.
type Defaults struct {
	FilePattern       string          `yaml:"filePattern" toml:"filePattern"`
	ProtectionPattern string          `yaml:"protectionPattern,omitempty" toml:"protectionPattern,omitempty"`
	TypeDefinition    *TypeDefinition `yaml:"typeDefinition,omitempty" toml:"typeDefinition,omitempty"`
}

// LanguageOverride replaces defaults for one language.
type LanguageOverride struct {
	Lang              string          `yaml:"lang" toml:"lang"`
	FilePattern       string          `yaml:"filePattern,omitempty" toml:"filePattern,omitempty"`
	ProtectionPattern string          `yaml:"protectionPattern,omitempty" toml:"protectionPattern,omitempty"`
	TypeDefinition    *TypeDefinition `yaml:"typeDefinition,omitempty" toml:"typeDefinition,omitempty"`
}

// TypeDefinition names a TypeScript declaration mirroring catalog keys.
type TypeDefinition struct {
	File       string `yaml:"file" toml:"file"`
	ExportName string `yaml:"exportName" toml:"exportName"`
}

// API configures the translation provider.
type API struct {
	Provider string `yaml:"provider" toml:"provider"`
	// Key is the provider key, or "{{ ENV_VAR }}" to read it from the environment.
	Key string `yaml:"key,omitempty" toml:"key,omitempty"`
	// Plugin is the plugin executable when Provider is "plugin".
	Plugin string `yaml:"plugin,omitempty" toml:"plugin,omitempty"`
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty" toml:"proxy,omitempty"`
	// Timeout is a duration such as "30s".
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// TimeoutDuration returns the parsed timeout, 0 when unset.
func (a API) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(a.Timeout)
	return d
}

// DefaultMaxConcurrent is used when maxConcurrent is not set.
const DefaultMaxConcurrent = 4

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// File names searched in the project root, in order.
const (
	YAMLFileName = "lemon-tree.yaml"
	TOMLFileName = "lemon-tree.toml"
)

// Find returns the config file in rootDir.
func Find(rootDir string) (string, error) {
	for _, name := range []string{YAMLFileName, "lemon-tree.yml", TOMLFileName} {
		path := filepath.Join(rootDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNotFound, YAMLFileName, rootDir)
}

// Load finds, parses and validates the config of rootDir. A .env file
// next to it is loaded into the environment first.
func Load(rootDir string) (*File, error) {
	path, err := Find(rootDir)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile parses and validates the config file at path. The format
// follows the extension: .toml or YAML.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	// .env is optional; variables may come from the environment.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	var f File
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}
	f.Root = root
	f.Path = path

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if len(f.Languages) == 0 {
		return fmt.Errorf("%w: languages must be an array with at least one language", ErrConfig)
	}
	for i, l := range f.Languages {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("%w: languages[%d] is empty", ErrConfig, i)
		}
	}
	if f.SourceLanguage == "" {
		return fmt.Errorf("%w: sourceLanguage must be a string", ErrConfig)
	}
	if f.Default.FilePattern == "" {
		return fmt.Errorf("%w: default.filePattern must be a string", ErrConfig)
	}
	if f.Default.ProtectionPattern == "" {
		f.Default.ProtectionPattern = protect.DefaultPattern
	}
	if _, err := protect.Compile(f.Default.ProtectionPattern); err != nil {
		return fmt.Errorf("%w: default.protectionPattern: %w", ErrConfig, err)
	}
	for i, o := range f.Translations {
		if o.Lang == "" {
			return fmt.Errorf("%w: translations[%d].lang must be a string", ErrConfig, i)
		}
		if o.ProtectionPattern == "" {
			continue
		}
		if _, err := protect.Compile(o.ProtectionPattern); err != nil {
			return fmt.Errorf("%w: translations[%d].protectionPattern: %w", ErrConfig, i, err)
		}
	}
	if f.MaxConcurrent < 0 {
		return fmt.Errorf("%w: maxConcurrent must not be negative", ErrConfig)
	}
	if f.MaxConcurrent == 0 {
		f.MaxConcurrent = DefaultMaxConcurrent
	}

	if f.API.Provider == "" {
		return fmt.Errorf("%w: api.provider must be a string", ErrConfig)
	}
	if !translate.IsKnownProvider(f.API.Provider) {
		return fmt.Errorf("%w: api.provider must be one of %s", ErrConfig, strings.Join(translate.Providers, ", "))
	}
	if f.API.Provider != translate.ProviderPlugin && f.API.Key == "" {
		return fmt.Errorf("%w: api.key must be a string", ErrConfig)
	}
	if f.API.Provider == translate.ProviderPlugin && f.API.Plugin == "" {
		return fmt.Errorf("%w: api.plugin must be a string", ErrConfig)
	}
	if f.API.Timeout != "" {
		if _, err := time.ParseDuration(f.API.Timeout); err != nil {
			return fmt.Errorf("%w: api.timeout: %v", ErrConfig, err)
		}
	}

	key, err := ResolveEnvVar(f.API.Key)
	if err != nil {
		return err
	}
	f.API.Key = key
	return nil
}

var envRefRe = regexp.MustCompile(`(?i)^\{\{\s*([A-Z0-9_]+)\s*\}\}$`)

// ResolveEnvVar expands a value of the form "{{ NAME }}" from the
// environment. Other values are returned unchanged.
func ResolveEnvVar(value string) (string, error) {
	m := envRefRe.FindStringSubmatch(value)
	if m == nil {
		return value, nil
	}
	v := os.Getenv(m[1])
	if v == "" {
		return "", fmt.Errorf("%w: environment variable %s is not defined", ErrConfig, m[1])
	}
	return v, nil
}
