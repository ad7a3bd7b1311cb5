package typedef

import (
	"errors"
	"strings"
)

var errUnbalanced = errors.New("unbalanced braces")

// member is one entry of an object type body.
type member struct {
	// raw holds entries kept verbatim: comments, index signatures,
	// methods and anything else that is not a plain property.
	raw string

	name     string
	prefix   string // modifiers such as "readonly "
	optional bool
	typ      string
	children *memberList
}

type memberList struct {
	members []*member
}

func (l *memberList) find(name string) *member {
	for _, m := range l.members {
		if m.raw == "" && m.name == name {
			return m
		}
	}
	return nil
}

func (l *memberList) add(parts []string) bool {
	name := parts[0]
	last := len(parts) == 1
	m := l.find(name)
	changed := false
	if m == nil {
		m = &member{name: name}
		if last {
			m.typ = "string"
		} else {
			m.children = &memberList{}
		}
		l.members = append(l.members, m)
		changed = true
	}
	if last {
		return changed
	}
	if m.children == nil {
		m.typ = ""
		m.children = &memberList{}
		changed = true
	}
	return m.children.add(parts[1:]) || changed
}

// remove deletes the member at parts. It reports whether something was
// removed and whether l is empty afterwards.
func (l *memberList) remove(parts []string) (bool, bool) {
	m := l.find(parts[0])
	if m == nil {
		return false, len(l.members) == 0
	}
	if len(parts) == 1 {
		l.drop(m)
		return true, len(l.members) == 0
	}
	if m.children == nil {
		return false, len(l.members) == 0
	}
	removed, empty := m.children.remove(parts[1:])
	if removed && empty {
		l.drop(m)
	}
	return removed, len(l.members) == 0
}

func (l *memberList) drop(m *member) {
	for i, cur := range l.members {
		if cur == m {
			l.members = append(l.members[:i], l.members[i+1:]...)
			return
		}
	}
}

func (l *memberList) render(b *strings.Builder, depth int) {
	if len(l.members) == 0 {
		b.WriteString("{}")
		return
	}
	indent := strings.Repeat("  ", depth+1)
	b.WriteString("{\n")
	for _, m := range l.members {
		b.WriteString(indent)
		if m.raw != "" {
			b.WriteString(m.raw)
			b.WriteByte('\n')
			continue
		}
		b.WriteString(m.prefix)
		b.WriteString(quotedKey(m.name))
		if m.optional {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		if m.children != nil {
			m.children.render(b, depth+1)
		} else {
			b.WriteString(m.typ)
		}
		b.WriteString(";\n")
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteByte('}')
}

// parseMembers parses the text between the braces of an object type.
func parseMembers(body string) (*memberList, error) {
	p := &parser{src: body}
	return p.list()
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for !p.eof() && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) skipSeparators() {
	for !p.eof() && strings.ContainsRune(" \t\r\n;,", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) list() (*memberList, error) {
	l := &memberList{}
	for {
		p.skipSeparators()
		if p.eof() {
			return l, nil
		}
		m, err := p.member()
		if err != nil {
			return nil, err
		}
		l.members = append(l.members, m)
	}
}

func (p *parser) member() (*member, error) {
	start := p.pos
	rest := p.src[p.pos:]

	switch {
	case strings.HasPrefix(rest, "//"):
		end := strings.IndexByte(rest, '\n')
		if end < 0 {
			end = len(rest)
		}
		p.pos += end
		return &member{raw: strings.TrimRight(rest[:end], " \t\r")}, nil
	case strings.HasPrefix(rest, "/*"):
		end := strings.Index(rest, "*/")
		if end < 0 {
			return nil, errors.New("unterminated comment")
		}
		p.pos += end + 2
		return &member{raw: rest[:end+2]}, nil
	}

	m := &member{}
	for {
		name, ok := p.name()
		if !ok {
			return p.rawMember(start)
		}
		p.skipSpace()
		if name == "readonly" && !p.eof() && p.src[p.pos] != ':' && p.src[p.pos] != '?' {
			m.prefix += name + " "
			continue
		}
		m.name = name
		break
	}

	if !p.eof() && p.src[p.pos] == '?' {
		m.optional = true
		p.pos++
		p.skipSpace()
	}
	if p.eof() || p.src[p.pos] != ':' {
		return p.rawMember(start)
	}
	p.pos++
	p.skipSpace()

	typeStart := p.pos
	if !p.eof() && p.src[p.pos] == '{' {
		close, err := matchBrace(p.src, p.pos)
		if err != nil {
			return nil, err
		}
		after := p.pos
		p.pos = close + 1
		if p.atMemberEnd() {
			children, err := parseMembers(p.src[after+1 : close])
			if err != nil {
				return nil, err
			}
			m.children = children
			return m, nil
		}
		p.pos = typeStart
	}

	end, err := scanType(p.src, p.pos)
	if err != nil {
		return nil, err
	}
	m.typ = strings.TrimSpace(p.src[typeStart:end])
	p.pos = end
	return m, nil
}

// atMemberEnd reports whether only spaces remain before a separator.
func (p *parser) atMemberEnd() bool {
	i := p.pos
	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t' || p.src[i] == '\r') {
		i++
	}
	return i >= len(p.src) || strings.ContainsRune(";,\n", rune(p.src[i]))
}

func (p *parser) rawMember(start int) (*member, error) {
	end, err := scanType(p.src, start)
	if err != nil {
		return nil, err
	}
	if end == start {
		end++
	}
	p.pos = end
	raw := strings.TrimSpace(p.src[start:end])
	if !strings.HasSuffix(raw, ";") {
		raw += ";"
	}
	return &member{raw: raw}, nil
}

// name reads an identifier or a quoted property name.
func (p *parser) name() (string, bool) {
	if p.eof() {
		return "", false
	}
	if q := p.src[p.pos]; q == '"' || q == '\'' {
		var b strings.Builder
		for i := p.pos + 1; i < len(p.src); i++ {
			c := p.src[i]
			switch {
			case c == '\\' && i+1 < len(p.src):
				i++
				b.WriteByte(p.src[i])
			case c == q:
				p.pos = i + 1
				return b.String(), true
			default:
				b.WriteByte(c)
			}
		}
		return "", false
	}
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80 {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", false
	}
	return p.src[start:p.pos], true
}

// scanType returns the end of a type expression starting at i: the first
// separator outside brackets and strings.
func scanType(src string, i int) (int, error) {
	depth := 0
	for i < len(src) {
		c := src[i]
		switch c {
		case '"', '\'', '`':
			end := skipString(src, i)
			if end < 0 {
				return 0, errors.New("unterminated string")
			}
			i = end
			continue
		case '{', '(', '[', '<':
			depth++
		case '}', ')', ']':
			depth--
		case '>':
			if i == 0 || src[i-1] != '=' {
				depth--
			}
		case ';', ',', '\n':
			if depth <= 0 {
				return i, nil
			}
		}
		if depth < 0 {
			return 0, errUnbalanced
		}
		i++
	}
	return i, nil
}

// matchBrace returns the index of the brace closing the one at open.
func matchBrace(src string, open int) (int, error) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch c := src[i]; c {
		case '"', '\'', '`':
			end := skipString(src, i)
			if end < 0 {
				return 0, errors.New("unterminated string")
			}
			i = end - 1
		case '/':
			if strings.HasPrefix(src[i:], "//") {
				nl := strings.IndexByte(src[i:], '\n')
				if nl < 0 {
					return 0, errUnbalanced
				}
				i += nl
			} else if strings.HasPrefix(src[i:], "/*") {
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return 0, errors.New("unterminated comment")
				}
				i += end + 3
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errUnbalanced
}

// skipString returns the index just past the string literal at i, or -1.
func skipString(src string, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return -1
}
