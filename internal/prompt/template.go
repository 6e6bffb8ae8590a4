// Package prompt renders brace-delimited prompt templates.
//
// A template is plain text with {name} placeholders. Literal braces are
// written doubled: "{{" renders as "{" and "}}" renders as "}".
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnbalanced = errors.New("unbalanced brace in template")

type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing template variable %q", e.Name)
}

type segment struct {
	text     string
	variable bool
}

type Template struct {
	source   string
	segments []segment
}

// Parse compiles text into a Template.
func Parse(text string) (*Template, error) {
	var (
		segments []segment
		literal  strings.Builder
	)

	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				literal.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: '{' at offset %d is never closed", ErrUnbalanced, i)
			}
			name := text[i+1 : i+1+end]
			if !isIdentifier(name) {
				return nil, fmt.Errorf("invalid placeholder {%s} at offset %d", name, i)
			}
			flush()
			segments = append(segments, segment{text: name, variable: true})
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				literal.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: single '}' at offset %d", ErrUnbalanced, i)
		default:
			literal.WriteByte(c)
		}
	}
	flush()

	return &Template{source: text, segments: segments}, nil
}

// MustParse is like Parse but panics on error. Use it for templates known at
// compile time.
func MustParse(text string) *Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Variables returns the placeholder names in order of first appearance.
func (t *Template) Variables() []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range t.segments {
		if s.variable && !seen[s.text] {
			seen[s.text] = true
			names = append(names, s.text)
		}
	}
	return names
}

// Render substitutes vars into the template. Substituted values are inserted
// as-is and are not parsed again. Extra vars are ignored.
func (t *Template) Render(vars map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range t.segments {
		if !s.variable {
			b.WriteString(s.text)
			continue
		}
		v, ok := vars[s.text]
		if !ok {
			return "", &MissingVariableError{Name: s.text}
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

func (t *Template) String() string {
	return t.source
}

// Render parses and renders text in one step.
func Render(text string, vars map[string]string) (string, error) {
	t, err := Parse(text)
	if err != nil {
		return "", err
	}
	return t.Render(vars)
}

// Escape doubles every brace in s so that it survives a later Render as
// literal text.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}

// EscapeValues returns a copy of vars with every value escaped.
func EscapeValues(vars map[string]string) map[string]string {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = Escape(v)
	}
	return out
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
