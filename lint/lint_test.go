package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/lemontree/catalog"
)

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunReportsMissingKeys(t *testing.T) {
	dir := t.TempDir()
	sources := []Source{
		{Lang: "en", Path: writeJSON(t, dir, "en.json", `{"a": "A", "nav": {"home": "Home"}, "b": "B"}`)},
		{Lang: "es", Path: writeJSON(t, dir, "es.json", `{"a": "A", "nav": {"home": "Inicio"}}`)},
		{Lang: "fr", Path: filepath.Join(dir, "fr.json")},
	}

	r, err := Run(sources)
	require.NoError(t, err)
	assert.False(t, r.OK())
	assert.Equal(t, 3, r.TotalKeys)
	assert.Equal(t, 3, r.TotalFiles)
	assert.Equal(t, 0, r.CorrectKeys())
	assert.Equal(t, 2, r.FilesWithProblems)

	require.Len(t, r.Problems, 3)
	assert.Equal(t, KeyStatus{Key: "a", Present: []string{"en", "es"}, Missing: []string{"fr"}}, r.Problems[0])
	assert.Equal(t, KeyStatus{Key: "b", Present: []string{"en"}, Missing: []string{"es", "fr"}}, r.Problems[1])
	assert.Equal(t, "nav.home", r.Problems[2].Key)
}

func TestRunAllPresent(t *testing.T) {
	dir := t.TempDir()
	r, err := Run([]Source{
		{Lang: "en", Path: writeJSON(t, dir, "en.json", `{"a": "A", "b.c": "C"}`)},
		{Lang: "de", Path: writeJSON(t, dir, "de.json", `{"b": {"c": "C"}, "a": "A"}`)},
	})
	require.NoError(t, err)
	assert.True(t, r.OK())
	assert.Equal(t, 2, r.CorrectKeys())
	assert.Zero(t, r.FilesWithProblems)
}

func TestRunInvalidCatalog(t *testing.T) {
	dir := t.TempDir()
	_, err := Run([]Source{{Lang: "en", Path: writeJSON(t, dir, "en.json", `{`)}})
	assert.ErrorIs(t, err, catalog.ErrParse)
}
