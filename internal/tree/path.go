package tree

import (
	"fmt"
	"strings"
)

// Wildcard as a predicate literal matches any value of a present attribute.
const Wildcard = "*"

// Segment is one step of a nodepath: a tag, optionally qualified by [attr=value].
type Segment struct {
	Tag   string
	Attr  string
	Value string
}

// Qualified reports whether the segment carries an attribute predicate.
func (s Segment) Qualified() bool {
	return s.Attr != ""
}

// Matches reports whether n satisfies the segment.
func (s Segment) Matches(n *Node) bool {
	if n.tag != s.Tag {
		return false
	}
	if s.Attr == "" {
		return true
	}
	v, ok := n.Attr(s.Attr)
	if !ok {
		return false
	}
	return s.Value == Wildcard || v == s.Value
}

func (s Segment) String() string {
	if s.Attr == "" {
		return s.Tag
	}
	return s.Tag + "[" + s.Attr + "=" + s.Value + "]"
}

// Path is a parsed nodepath.
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = seg.String()
	}
	return strings.Join(parts, "/")
}

// Parse parses a nodepath of the form segment ("/" segment)* where a segment is
// tag or tag[attr=literal]. A single leading "/" is accepted. Literals may contain
// "/" but not "]".
func Parse(raw string) (Path, error) {
	s := strings.TrimPrefix(raw, "/")
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMalformedPath)
	}
	if i := strings.IndexFunc(s, isControl); i >= 0 {
		return nil, fmt.Errorf("%w: control byte 0x%02x at offset %d", ErrMalformedPath, s[i], i)
	}

	var path Path
	for {
		seg, rest, err := parseSegment(s)
		if err != nil {
			return nil, err
		}
		path = append(path, seg)
		if rest == "" {
			return path, nil
		}
		if rest[0] != '/' {
			return nil, fmt.Errorf("%w: unexpected %q after segment %q", ErrMalformedPath, rest[0], seg.String())
		}
		s = rest[1:]
		if s == "" {
			return nil, fmt.Errorf("%w: trailing separator", ErrMalformedPath)
		}
	}
}

// MustParse is like Parse but panics on error. Intended for constant paths.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(s string) (Segment, string, error) {
	end := strings.IndexAny(s, "/[]=")
	if end < 0 {
		end = len(s)
	}
	tag := s[:end]
	if tag == "" {
		return Segment{}, "", fmt.Errorf("%w: empty tag in %q", ErrMalformedPath, s)
	}
	rest := s[end:]
	if rest == "" || rest[0] == '/' {
		return Segment{Tag: tag}, rest, nil
	}
	if rest[0] != '[' {
		return Segment{}, "", fmt.Errorf("%w: unexpected %q in tag %q", ErrMalformedPath, rest[0], tag)
	}

	body := rest[1:]
	eq := strings.IndexAny(body, "=]/[")
	if eq < 0 || body[eq] != '=' {
		return Segment{}, "", fmt.Errorf("%w: predicate on %q missing '='", ErrMalformedPath, tag)
	}
	attr := body[:eq]
	if attr == "" {
		return Segment{}, "", fmt.Errorf("%w: predicate on %q has empty attribute", ErrMalformedPath, tag)
	}
	body = body[eq+1:]
	rb := strings.IndexByte(body, ']')
	if rb < 0 {
		return Segment{}, "", fmt.Errorf("%w: unterminated predicate on %q", ErrMalformedPath, tag)
	}
	literal := body[:rb]
	if strings.ContainsRune(literal, '[') {
		return Segment{}, "", fmt.Errorf("%w: nested predicate on %q", ErrMalformedPath, tag)
	}
	return Segment{Tag: tag, Attr: attr, Value: literal}, body[rb+1:], nil
}

func isControl(r rune) bool {
	return r >= 0x00 && r <= 0x04
}
