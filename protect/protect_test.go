package protect

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectAndRestoreSinglePlaceholder(t *testing.T) {
	c, err := New("Hello {{name}}!", "{{key}}")
	require.NoError(t, err)
	assert.Equal(t, "Hello {0{name}}!", c.Text())

	restored, err := c.Restore(c.Text())
	require.NoError(t, err)
	assert.Equal(t, "Hello {{name}}!", restored)
}

func TestIDsAssignedInScanOrder(t *testing.T) {
	c, err := New("__first__ then __second__ and __third__", "__key__")
	require.NoError(t, err)
	assert.Equal(t, "{0{first}} then {1{second}} and {2{third}}", c.Text())

	segs := c.Segments()
	require.Len(t, segs, 3)
	for i, s := range segs {
		assert.Equal(t, i, s.ID)
	}
	assert.Equal(t, "__first__", segs[0].Original)
	assert.Equal(t, "__third__", segs[2].Original)
}

func TestRestoreIgnoresTamperedInnerContent(t *testing.T) {
	c, err := New("foo {{original}} bar", "{{key}}")
	require.NoError(t, err)

	restored, err := c.Restore("foo {0{other text}} bar")
	require.NoError(t, err)
	assert.Equal(t, "foo {{original}} bar", restored)
}

func TestRestoreRejectsUnknownID(t *testing.T) {
	c, err := New("foo {{original}} bar", "{{key}}")
	require.NoError(t, err)

	_, err = c.Restore("foo {99{x}} bar")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMarker))
	assert.Contains(t, err.Error(), "99")

	var me *UnknownMarkerError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "99", me.ID)
	assert.Equal(t, "{99{x}}", me.Marker)
}

func TestRestoreRejectsMarkersFromAnotherCodec(t *testing.T) {
	other, err := New("plain text", "{{key}}")
	require.NoError(t, err)
	assert.Empty(t, other.Segments())

	_, err = other.Restore("{0{name}}")
	assert.ErrorIs(t, err, ErrUnknownMarker)

	withOne, err := New("{{a}}", "{{key}}")
	require.NoError(t, err)
	_, err = withOne.Restore("{00{a}}")
	assert.ErrorIs(t, err, ErrUnknownMarker)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		markers int
	}{
		{"empty match", "{{key}}", "before {{}} after", 1},
		{"unicode", "{{key}}", "こんにちは {{名前}} 🌍 {{ciudad}}", 2},
		{"multi-line content", "{{key}}", "line one {{a\nb\nc}}\nline two", 1},
		{"no occurrences", "{{key}}", "nothing to protect here", 0},
		{"empty text", "{{key}}", "", 0},
		{"square brackets", "[key]", "Press [Enter] or [Esc]", 2},
		{"parentheses", "(key)", "Value (x) and (y+z)", 2},
		{"dollar signs", "$key$", "Total: $amount$ $currency$", 2},
		{"percent", "%key%", "%user% has %count% items", 2},
		{"dots and stars", ".*key*.", "a .*b*. c", 1},
		{"backslashes", `\key\`, `path \home\ end`, 1},
		{"suffix only", "key__", "abc__ def__", 2},
		{"placeholder repeated", "<key-key>", "<a-key> <b-key>", 2},
		{"nested delimiters", "{{key}}", "{{a {{b}} c}}", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.text, tc.pattern)
			require.NoError(t, err)
			assert.Len(t, c.Segments(), tc.markers)

			restored, err := c.Restore(c.Text())
			require.NoError(t, err)
			assert.Equal(t, tc.text, restored)
		})
	}
}

func TestMarkersDoNotLeakDelimiters(t *testing.T) {
	c, err := New("Hi {{name}}, you have {{count}} messages", "{{key}}")
	require.NoError(t, err)
	assert.NotContains(t, c.Text(), "{{")

	// A provider that translates the surrounding text and the marker content.
	translated := strings.NewReplacer(
		"Hi", "Hola",
		"you have", "tienes",
		"messages", "mensajes",
		"{0{name}}", "{0{nombre}}",
	).Replace(c.Text())

	restored, err := c.Restore(translated)
	require.NoError(t, err)
	assert.Equal(t, "Hola {{name}}, tienes {{count}} mensajes", restored)
}

func TestRestoreWithoutMarkersIsNoop(t *testing.T) {
	c, err := New("{{a}} and {{b}}", "{{key}}")
	require.NoError(t, err)

	restored, err := c.Restore("completely rewritten")
	require.NoError(t, err)
	assert.Equal(t, "completely rewritten", restored)
}

func TestPatternReuseKeepsCodecsIndependent(t *testing.T) {
	p := MustCompile("{{key}}")
	first := p.Protect("{{a}} {{b}}")
	second := p.Protect("{{c}}")

	assert.Equal(t, "{0{a}} {1{b}}", first.Text())
	assert.Equal(t, "{0{c}}", second.Text())

	_, err := second.Restore("{1{b}}")
	assert.ErrorIs(t, err, ErrUnknownMarker)
	assert.Equal(t, "{{key}}", p.String())
}

func TestCompileRejectsInvalidPatterns(t *testing.T) {
	for _, pattern := range []string{"", "{{name}}", "KEY"} {
		_, err := Compile(pattern)
		assert.ErrorIs(t, err, ErrInvalidPattern, "pattern %q", pattern)
	}

	assert.Panics(t, func() { MustCompile("{{}}") })
}

func TestBarePatternRoundTrips(t *testing.T) {
	c, err := New("Hi {x}", Placeholder)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Segments())
	for _, s := range c.Segments() {
		assert.Empty(t, s.Original)
	}

	restored, err := c.Restore(c.Text())
	require.NoError(t, err)
	assert.Equal(t, "Hi {x}", restored)
}
