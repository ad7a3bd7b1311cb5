// Package protect shields substrings of a text from an opaque external
// transformation (a machine translation call) and restores them verbatim
// afterwards.
//
// Protected spans are described by a delimiter pattern that contains the
// literal word "key", for example "{{key}}", "__key__" or "[key]". Every
// span matching the pattern is replaced by a marker of the form
//
//	{<id>{<inner content>}}
//
// where id is assigned from 0 in left-to-right order. Restore replaces each
// marker with the original span, whatever the marker contains by then.
//
//	c, _ := protect.New("Hello {{name}}!", "{{key}}")
//	c.Text()                          // "Hello {0{name}}!"
//	c.Restore("Hola {0{nombre}}!")    // "Hola {{name}}!"
package protect

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder is the literal word a delimiter pattern must contain.
const Placeholder = "key"

// DefaultPattern is used when no protection pattern is configured.
const DefaultPattern = "{{key}}"

var (
	// ErrInvalidPattern reports a delimiter pattern from which no protection
	// boundary can be derived.
	ErrInvalidPattern = errors.New("invalid protection pattern")
	// ErrUnknownMarker reports a marker whose id was never produced by the codec.
	ErrUnknownMarker = errors.New("unknown protected marker")
)

// markerRe matches the intermediate marker form {id{content}}.
var markerRe = regexp.MustCompile(`\{(\d+)\{([\s\S]*?)\}\}`)

// UnknownMarkerError is returned by Restore when a marker id is not known
// to the codec, e.g. because the provider altered the marker.
type UnknownMarkerError struct {
	// ID is the id as written in the marker.
	ID     string
	Marker string
}

func (e *UnknownMarkerError) Error() string {
	return fmt.Sprintf("protected ID %s %s not found", e.ID, e.Marker)
}

func (e *UnknownMarkerError) Unwrap() error { return ErrUnknownMarker }

// Pattern is a compiled delimiter pattern. It is immutable and may be
// reused to protect any number of texts.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// Compile validates a delimiter pattern and derives its extraction regexp.
// All regexp metacharacters of the pattern are escaped; the first
// occurrence of "key" becomes a non-greedy group matching any characters,
// newlines included. The bare pattern "key" matches an empty span at every
// position.
func Compile(pattern string) (*Pattern, error) {
	idx := strings.Index(pattern, Placeholder)
	if idx < 0 {
		return nil, fmt.Errorf("%w %q: must include the literal word %q", ErrInvalidPattern, pattern, Placeholder)
	}
	prefix := regexp.QuoteMeta(pattern[:idx])
	suffix := regexp.QuoteMeta(pattern[idx+len(Placeholder):])
	re, err := regexp.Compile(prefix + `([\s\S]*?)` + suffix)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	return &Pattern{source: pattern, re: re}, nil
}

// MustCompile is like Compile but panics on an invalid pattern.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern as configured.
func (p *Pattern) String() string { return p.source }

// Segment is one protected span of the original text.
type Segment struct {
	ID       int
	Original string
}

// Codec holds the protected form of one text together with the segments
// needed to restore it. A Codec belongs to a single translation operation.
type Codec struct {
	text     string
	segments []Segment
}

// New compiles pattern and protects text with it.
func New(text, pattern string) (*Codec, error) {
	p, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return p.Protect(text), nil
}

// Protect scans text for non-overlapping matches of the pattern and
// replaces each one with a numbered marker.
func (p *Pattern) Protect(text string) *Codec {
	c := &Codec{}
	matches := p.re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		c.text = text
		return c
	}

	var b strings.Builder
	b.Grow(len(text) + len(matches)*4)
	last := 0
	for _, m := range matches {
		id := len(c.segments)
		c.segments = append(c.segments, Segment{ID: id, Original: text[m[0]:m[1]]})

		b.WriteString(text[last:m[0]])
		b.WriteByte('{')
		b.WriteString(strconv.Itoa(id))
		b.WriteByte('{')
		b.WriteString(text[m[2]:m[3]])
		b.WriteString("}}")
		last = m[1]
	}
	b.WriteString(text[last:])
	c.text = b.String()
	return c
}

// Text returns the protected text, ready to be sent to a provider.
func (c *Codec) Text() string { return c.text }

// Segments returns a copy of the protected segments in id order.
func (c *Codec) Segments() []Segment {
	out := make([]Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

// Restore replaces every marker in modified with the original span it
// stands for. The content between the marker braces is ignored, so spans
// mangled by the provider are still recovered exactly.
func (c *Codec) Restore(modified string) (string, error) {
	matches := markerRe.FindAllStringSubmatchIndex(modified, -1)
	if len(matches) == 0 {
		return modified, nil
	}

	var b strings.Builder
	b.Grow(len(modified))
	last := 0
	for _, m := range matches {
		raw := modified[m[2]:m[3]]
		id, err := strconv.Atoi(raw)
		if err != nil || id >= len(c.segments) || strconv.Itoa(id) != raw {
			return "", &UnknownMarkerError{ID: raw, Marker: modified[m[0]:m[1]]}
		}
		b.WriteString(modified[last:m[0]])
		b.WriteString(c.segments[id].Original)
		last = m[1]
	}
	b.WriteString(modified[last:])
	return b.String(), nil
}
