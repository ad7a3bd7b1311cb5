package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/minios-linux/lemontree/config"
	"github.com/minios-linux/lemontree/translate"
)

func TestRewriteArgs(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{in: []string{"-g"}, want: []string{"guided"}},
		{in: []string{"--dry-run", "-g"}, want: []string{"guided", "--dry-run"}},
		{in: []string{"set", "k", "v"}, want: []string{"set", "k", "v"}},
		{in: []string{"set", "flag", "--", "-g"}, want: []string{"set", "flag", "--", "-g"}},
		{in: []string{"delete", "-g"}, want: []string{"delete", "-g"}},
		{in: []string{"--", "-g"}, want: []string{"--", "-g"}},
		{in: nil, want: nil},
	}

	for _, tc := range tests {
		if got := rewriteArgs(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("rewriteArgs(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "config", err: fmt.Errorf("x: %w", config.ErrConfig), want: exitFailure},
		{name: "config not found", err: fmt.Errorf("x: %w", config.ErrNotFound), want: exitNotFound},
		{name: "plugin not found", err: translate.ErrPluginNotFound, want: exitNotFound},
		{name: "explicit", err: &exitError{code: exitProvider, err: errors.New("all failed")}, want: exitProvider},
	}

	for _, tc := range tests {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("%s: exitCode() = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func writeProject(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.YAMLFileName), []byte(yaml), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}
	return dir
}

func useProject(t *testing.T, dir string) {
	t.Helper()
	oldRoot, oldConfig, oldYes := rootDir, configPath, autoYes
	rootDir, configPath, autoYes = dir, "", true
	t.Cleanup(func() { rootDir, configPath, autoYes = oldRoot, oldConfig, oldYes })
}

func TestSetAndDeleteSourceOnlyProject(t *testing.T) {
	dir := writeProject(t, `languages: [en]
sourceLanguage: en
default:
  filePattern: locales/{{lang}}.json
api:
  provider: google
  key: test
`)
	useProject(t, dir)

	p, err := loadProject()
	if err != nil {
		t.Fatalf("loadProject() error: %v", err)
	}
	if err := runSet(t.Context(), p, "greeting", "Hello", false); err != nil {
		t.Fatalf("runSet() error: %v", err)
	}
	if got := catalogKeys(p); !reflect.DeepEqual(got, []string{"greeting"}) {
		t.Fatalf("catalogKeys() = %q", got)
	}

	if err := runDelete(t.Context(), p, "greeting", false); err != nil {
		t.Fatalf("runDelete() error: %v", err)
	}
	if got := catalogKeys(p); len(got) != 0 {
		t.Fatalf("catalogKeys() after delete = %q", got)
	}
}

func TestLintExitsWithFailure(t *testing.T) {
	dir := writeProject(t, `languages: [en, es]
sourceLanguage: en
default:
  filePattern: "{{lang}}.json"
api:
  provider: google
  key: test
`)
	useProject(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"a": "A", "b": "B"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "es.json"), []byte(`{"a": "A"}`), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := loadProject()
	if err != nil {
		t.Fatalf("loadProject() error: %v", err)
	}
	err = runLint(p)
	if exitCode(err) != exitFailure {
		t.Fatalf("runLint() = %v, want exit code %d", err, exitFailure)
	}

	if err := os.WriteFile(filepath.Join(dir, "es.json"), []byte(`{"a": "A", "b": "B"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := runLint(p); err != nil {
		t.Fatalf("runLint() on complete catalogs = %v", err)
	}
}

func TestLoadProjectMissingConfig(t *testing.T) {
	useProject(t, t.TempDir())
	_, err := loadProject()
	if exitCode(err) != exitNotFound {
		t.Fatalf("loadProject() = %v, want exit code %d", err, exitNotFound)
	}
}

func TestPluginNotFoundExitCode(t *testing.T) {
	dir := writeProject(t, `languages: [en, es]
sourceLanguage: en
default:
  filePattern: "{{lang}}.json"
api:
  provider: plugin
  plugin: ./missing-plugin
`)
	useProject(t, dir)

	p, err := loadProject()
	if err != nil {
		t.Fatalf("loadProject() error: %v", err)
	}
	_, err = p.newRunner()
	if exitCode(err) != exitNotFound {
		t.Fatalf("newRunner() = %v, want exit code %d", err, exitNotFound)
	}
}
