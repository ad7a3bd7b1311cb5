// Package typedef keeps a TypeScript type declaration in sync with the
// keys of a translation catalog.
//
// The declaration is either an interface or a type alias of an object
// literal:
//
//	export interface Translations {
//	  greeting: string;
//	  nav: {
//	    home: string;
//	  };
//	}
//
// Dotted keys become nested object literals. Only the body of the named
// declaration is rewritten; the rest of the file is left untouched.
package typedef

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Definition locates one declaration.
type Definition struct {
	File       string
	ExportName string
}

// Enabled reports whether both the file and the export name are set.
func (d Definition) Enabled() bool {
	return d.File != "" && d.ExportName != ""
}

// Updater applies key changes to the declarations of each language.
// Several languages may share a file; writes to one file are serialized.
type Updater struct {
	lookup func(lang string) Definition

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns an Updater that finds a language's declaration with lookup.
func New(lookup func(lang string) Definition) *Updater {
	return &Updater{lookup: lookup, locks: make(map[string]*sync.Mutex)}
}

func (u *Updater) fileLock(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	l, ok := u.locks[abs]
	if !ok {
		l = &sync.Mutex{}
		u.locks[abs] = l
	}
	return l
}

// Add declares key as a string field for lang. Languages without a
// type definition are ignored.
func (u *Updater) Add(key, lang string) error {
	def := u.lookup(lang)
	if !def.Enabled() {
		return nil
	}
	l := u.fileLock(def.File)
	l.Lock()
	defer l.Unlock()
	return AddKey(def, key)
}

// Remove deletes key from the declaration of lang.
func (u *Updater) Remove(key, lang string) error {
	def := u.lookup(lang)
	if !def.Enabled() {
		return nil
	}
	l := u.fileLock(def.File)
	l.Lock()
	defer l.Unlock()
	return RemoveKey(def, key)
}

// AddKey adds key to the declaration, creating the file or the
// declaration when missing.
func AddKey(def Definition, key string) error {
	return edit(def, func(root *memberList) bool {
		return root.add(strings.Split(key, "."))
	})
}

// RemoveKey removes key from the declaration and prunes object literals
// left empty.
func RemoveKey(def Definition, key string) error {
	return edit(def, func(root *memberList) bool {
		removed, _ := root.remove(strings.Split(key, "."))
		return removed
	})
}

func edit(def Definition, change func(*memberList) bool) error {
	src, err := ensureFile(def)
	if err != nil {
		return err
	}

	open, close, err := locate(src, def.ExportName)
	if err != nil {
		return fmt.Errorf("%s: %w", def.File, err)
	}
	root, err := parseMembers(src[open+1 : close])
	if err != nil {
		return fmt.Errorf("%s: %w", def.File, err)
	}
	if !change(root) {
		return nil
	}

	var b strings.Builder
	b.WriteString(src[:open])
	root.render(&b, 0)
	b.WriteString(src[close+1:])
	if err := os.WriteFile(def.File, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", def.File, err)
	}
	return nil
}

// ensureFile returns the file content, creating the file or appending an
// empty interface when the declaration is missing.
func ensureFile(def Definition) (string, error) {
	if err := os.MkdirAll(filepath.Dir(def.File), 0755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	empty := "export interface " + def.ExportName + " {}\n"

	data, err := os.ReadFile(def.File)
	if os.IsNotExist(err) {
		if err := os.WriteFile(def.File, []byte(empty), 0644); err != nil {
			return "", fmt.Errorf("writing %s: %w", def.File, err)
		}
		return empty, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", def.File, err)
	}

	src := string(data)
	if declRe(def.ExportName).MatchString(src) {
		return src, nil
	}
	if src != "" && !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	if src != "" {
		src += "\n"
	}
	src += empty
	if err := os.WriteFile(def.File, []byte(src), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", def.File, err)
	}
	return src, nil
}

func declRe(name string) *regexp.Regexp {
	n := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?:^|[\s;])(?:export\s+)?(?:interface\s+` + n + `\b[^{=]*|type\s+` + n + `\s*=\s*)\{`)
}

// locate returns the offsets of the braces delimiting the body of name.
func locate(src, name string) (int, int, error) {
	loc := declRe(name).FindStringIndex(src)
	if loc == nil {
		return 0, 0, fmt.Errorf("declaration %s not found", name)
	}
	open := loc[1] - 1
	close, err := matchBrace(src, open)
	if err != nil {
		return 0, 0, fmt.Errorf("declaration %s: %w", name, err)
	}
	return open, close, nil
}

var identRe = regexp.MustCompile(`(?i)^[$A-Z_][0-9A-Z_$]*$`)

// quotedKey returns name as a property name, quoting it when it is not a
// valid identifier.
func quotedKey(name string) string {
	if identRe.MatchString(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
}
