// Package prompt loads the SQL generation prompt template and assembles the
// final message list sent to the model.
package prompt

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/airsight-ai/airquery-engine/pkg/apperrors"
)

// placeholderPattern matches {name} substitution points and the doubled
// braces used to write literal braces in the template.
var placeholderPattern = regexp.MustCompile(`\{\{|\}\}|\{(\w+)\}`)

// Template is a prompt template with named placeholders. Placeholders are
// written {name}; literal braces are doubled ({{ and }}).
type Template struct {
	text string
}

// LoadTemplate reads a template from disk.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template %s: %w", path, err)
	}
	return NewTemplate(string(data)), nil
}

// NewTemplate wraps raw template text.
func NewTemplate(text string) *Template {
	return &Template{text: text}
}

// Placeholders returns the distinct placeholder names in the template, in
// first-appearance order.
func (t *Template) Placeholders() []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.text, -1) {
		if m[1] != "" && !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render substitutes values into the template. Every placeholder in the
// template must have a value; a missing one is a configuration error and
// renders nothing.
func (t *Template) Render(values map[string]string) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(t.text, func(token string) string {
		switch token {
		case "{{":
			return "{"
		case "}}":
			return "}"
		}
		name := token[1 : len(token)-1]
		value, ok := values[name]
		if !ok {
			missing = append(missing, name)
			return token
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: template placeholder(s) without value: %s",
			apperrors.ErrTemplateFormat, strings.Join(missing, ", "))
	}
	return out, nil
}
