package prompt

import (
	"fmt"
	"strings"
)

const DefaultSeparator = "\n\n"

// FewShot assembles prefix, rendered examples and suffix into one prompt.
//
// Each example is rendered with ExampleTemplate first; the joined text is then
// rendered again with the call variables. Example values containing braces
// must be passed through Escape (or EscapeValues) beforehand.
type FewShot struct {
	Prefix          string
	Suffix          string
	ExampleTemplate string
	Examples        []map[string]string
	Separator       string
}

// Format returns the rendered prompt for vars.
func (f *FewShot) Format(vars map[string]string) (string, error) {
	exampleTmpl, err := Parse(f.ExampleTemplate)
	if err != nil {
		return "", fmt.Errorf("example template: %w", err)
	}

	pieces := make([]string, 0, len(f.Examples)+2)
	if f.Prefix != "" {
		pieces = append(pieces, f.Prefix)
	}
	for i, example := range f.Examples {
		rendered, err := exampleTmpl.Render(example)
		if err != nil {
			return "", fmt.Errorf("example %d: %w", i, err)
		}
		if rendered != "" {
			pieces = append(pieces, rendered)
		}
	}
	if f.Suffix != "" {
		pieces = append(pieces, f.Suffix)
	}

	sep := f.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	text, err := Render(strings.Join(pieces, sep), vars)
	if err != nil {
		return "", fmt.Errorf("few-shot prompt: %w", err)
	}
	return text, nil
}
