package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse_PreservesOrderOnRoundTrip(t *testing.T) {
	input := `{
    "zeta": "Z",
    "alpha": "A",
    "nav": {
        "home": "Home",
        "about": "About"
    },
    "count": 3,
    "list": [1, 2]
}
`
	c, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	out, err := c.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{
    "zeta": "Z",
    "alpha": "A",
    "nav": {
        "home": "Home",
        "about": "About"
    },
    "count": 3,
    "list": [1,2]
}
`
	if string(out) != want {
		t.Fatalf("unexpected output:\n%s", out)
	}

	wantKeys := []string{"zeta", "alpha", "nav.home", "nav.about"}
	if got := c.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Fatalf("Keys() = %v, want %v", got, wantKeys)
	}
	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}
}

func TestLookup_LiteralKeyWinsOverNestedPath(t *testing.T) {
	c, err := Parse([]byte(`{"a.b": "flat", "a": {"b": "nested", "c": "deep"}}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if v, ok := c.Get("a.b"); !ok || v != "flat" {
		t.Fatalf("Get(a.b) = %q, %v; want flat", v, ok)
	}
	if v, ok := c.Get("a.c"); !ok || v != "deep" {
		t.Fatalf("Get(a.c) = %q, %v; want deep", v, ok)
	}
	if c.Has("a") {
		t.Fatal("an object must not count as a key")
	}
	if c.Has("a.c.d") {
		t.Fatal("path through a string must not resolve")
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		nested bool
		key    string
		want   string
	}{
		{
			name:  "new flat key",
			input: `{"x": "1"}`,
			key:   "menu.open",
			want:  `{"x":"1","menu.open":"v"}`,
		},
		{
			name:   "new nested key",
			input:  `{"x": "1"}`,
			nested: true,
			key:    "menu.open",
			want:   `{"x":"1","menu":{"open":"v"}}`,
		},
		{
			name:   "nested key into existing object",
			input:  `{"menu": {"close": "c"}}`,
			nested: true,
			key:    "menu.open",
			want:   `{"menu":{"close":"c","open":"v"}}`,
		},
		{
			name:   "string blocks nested path",
			input:  `{"menu": "m"}`,
			nested: true,
			key:    "menu.open",
			want:   `{"menu":"m","menu.open":"v"}`,
		},
		{
			name:  "existing nested key updated in place",
			input: `{"menu": {"open": "old"}}`,
			key:   "menu.open",
			want:  `{"menu":{"open":"v"}}`,
		},
		{
			name:   "existing flat key updated in place",
			input:  `{"menu.open": "old"}`,
			nested: true,
			key:    "menu.open",
			want:   `{"menu.open":"v"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Parse([]byte(tc.input))
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			c.Nested = tc.nested
			c.Set(tc.key, "v")

			if got := compact(t, c); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDelete_PrunesEmptyObjects(t *testing.T) {
	c, err := Parse([]byte(`{"a": {"b": {"c": "x"}}, "keep": {"me": "y"}, "top": "z"}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if !c.Delete("a.b.c") {
		t.Fatal("expected a.b.c to be deleted")
	}
	if got := compact(t, c); got != `{"keep":{"me":"y"},"top":"z"}` {
		t.Fatalf("unexpected catalog after delete: %s", got)
	}

	if !c.Delete("top") {
		t.Fatal("expected top to be deleted")
	}
	if c.Delete("missing.key") || c.Delete("keep") {
		t.Fatal("Delete must report false for absent keys and objects")
	}
	if got := compact(t, c); got != `{"keep":{"me":"y"}}` {
		t.Fatalf("unexpected catalog: %s", got)
	}
}

func TestLoad_MissingAndEmptyFiles(t *testing.T) {
	tmp := t.TempDir()

	c, err := Load(filepath.Join(tmp, "nope.json"))
	if err != nil {
		t.Fatalf("Load missing error: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d keys", c.Len())
	}

	empty := filepath.Join(tmp, "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = Load(empty)
	if err != nil {
		t.Fatalf("Load empty error: %v", err)
	}
	out, _ := c.Marshal()
	if string(out) != "{}\n" {
		t.Fatalf("unexpected empty output %q", out)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmp := t.TempDir()
	for name, data := range map[string]string{
		"broken.json": `{"a": `,
		"array.json":  `["a"]`,
	} {
		path := filepath.Join(tmp, name)
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if !errors.Is(err, ErrParse) {
			t.Fatalf("%s: expected ErrParse, got %v", name, err)
		}
		if !strings.Contains(err.Error(), path) {
			t.Fatalf("%s: error should name the file: %v", name, err)
		}
	}
}

func TestWriteFile_CreatesDirsAndSkipsHTMLEscaping(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "locales", "es", "translation.json")

	c := New()
	c.Set("link", `<a href="/x">Ir & volver</a>`)
	if err := c.WriteFile(path); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "{\n    \"link\": \"<a href=\\\"/x\\\">Ir & volver</a>\"\n}\n"
	if string(data) != want {
		t.Fatalf("unexpected file:\n%s", data)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !reflect.DeepEqual(back.Flatten(), c.Flatten()) {
		t.Fatalf("round trip mismatch: %v vs %v", back.Flatten(), c.Flatten())
	}
}

func TestResolveCasing(t *testing.T) {
	t.Run("renames single candidate", func(t *testing.T) {
		tmp := t.TempDir()
		if err := os.WriteFile(filepath.Join(tmp, "EN.json"), []byte(`{"a":"b"}`), 0644); err != nil {
			t.Fatal(err)
		}

		res, err := ResolveCasing(tmp, "en.json")
		if err != nil {
			t.Fatalf("ResolveCasing error: %v", err)
		}
		if !res.Renamed() || res.Ambiguous() {
			t.Fatalf("unexpected result: %+v", res)
		}
		entries, _ := os.ReadDir(tmp)
		if len(entries) != 1 || entries[0].Name() != "en.json" {
			t.Fatalf("expected only en.json, got %v", entries)
		}
	})

	t.Run("exact name is left alone", func(t *testing.T) {
		tmp := t.TempDir()
		if err := os.WriteFile(filepath.Join(tmp, "en.json"), nil, 0644); err != nil {
			t.Fatal(err)
		}
		res, err := ResolveCasing(tmp, "en.json")
		if err != nil {
			t.Fatalf("ResolveCasing error: %v", err)
		}
		if res.Renamed() || len(res.Conflicts) != 0 {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		res, err := ResolveCasing(filepath.Join(t.TempDir(), "nope"), "en.json")
		if err != nil || res.Renamed() {
			t.Fatalf("unexpected result: %+v, %v", res, err)
		}
	})
}

func compact(t *testing.T, c *Catalog) string {
	t.Helper()
	out, err := c.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var b strings.Builder
	inString := false
	escaped := false
	for _, r := range string(out) {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case !inString && (r == ' ' || r == '\n'):
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
