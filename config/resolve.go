package config

import (
	"fmt"
	"path/filepath"

	"github.com/minios-linux/lemontree/protect"
	"github.com/minios-linux/lemontree/typedef"
)

// Language is the resolved configuration of one language.
type Language struct {
	Lang string
	// FilePath is the absolute catalog path.
	FilePath string
	// Dir is the directory of FilePath.
	Dir string
	// FilePattern is the pattern FilePath was built from.
	FilePattern       string
	ProtectionPattern string
	TypeDefinition    typedef.Definition
}

func (f *File) override(lang string) LanguageOverride {
	for _, o := range f.Translations {
		if o.Lang == lang {
			return o
		}
	}
	return LanguageOverride{}
}

// Vars returns the variables available to patterns for lang.
func (f *File) Vars(lang string) map[string]string {
	return map[string]string{
		"lang":           lang,
		"provider":       f.API.Provider,
		"sourceLanguage": f.SourceLanguage,
	}
}

// ResolveLanguage applies the per-language override on top of the
// defaults and expands file patterns relative to the config root.
func (f *File) ResolveLanguage(lang string) Language {
	o := f.override(lang)
	vars := f.Vars(lang)

	filePattern := o.FilePattern
	if filePattern == "" {
		filePattern = f.Default.FilePattern
	}
	protection := o.ProtectionPattern
	if protection == "" {
		protection = f.Default.ProtectionPattern
	}
	if protection == "" {
		protection = protect.DefaultPattern
	}
	td := o.TypeDefinition
	if td == nil {
		td = f.Default.TypeDefinition
	}

	l := Language{
		Lang:              lang,
		FilePath:          f.abs(Transform(filePattern, vars)),
		FilePattern:       filePattern,
		ProtectionPattern: protection,
	}
	l.Dir = filepath.Dir(l.FilePath)
	if td != nil && td.File != "" {
		l.TypeDefinition = typedef.Definition{
			File:       f.abs(Transform(td.File, vars)),
			ExportName: td.ExportName,
		}
	}
	return l
}

// TypeDefinition returns the declaration of lang for typedef.New.
func (f *File) TypeDefinition(lang string) typedef.Definition {
	return f.ResolveLanguage(lang).TypeDefinition
}

// Compiled is a resolved language with its compiled protection pattern.
type Compiled struct {
	Language
	Pattern *protect.Pattern
}

// Compile resolves every language and compiles its protection pattern.
// It fails on the first invalid pattern, before any file is touched.
func (f *File) Compile() ([]Compiled, error) {
	out := make([]Compiled, 0, len(f.Languages))
	for _, lang := range f.Languages {
		l := f.ResolveLanguage(lang)
		p, err := protect.Compile(l.ProtectionPattern)
		if err != nil {
			return nil, fmt.Errorf("%w: language %s: %w", ErrConfig, lang, err)
		}
		out = append(out, Compiled{Language: l, Pattern: p})
	}
	return out, nil
}

func (f *File) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(f.Root, p)
}
