// Package prompt renders LLM prompt templates. Templates use mustache-style
// placeholders ({{ name }}); rendering is a plain ordered substitution pass
// with no reflection or template engine.
package prompt

import "strings"

// Render replaces every {{ key }} placeholder in template with its binding.
// Placeholders accept optional single spaces inside the braces. Unbound
// placeholders are left untouched so missing bindings are visible in logs.
func Render(template string, bindings map[string]string) string {
	out := template
	for key, val := range bindings {
		out = strings.ReplaceAll(out, "{{ "+key+" }}", val)
		out = strings.ReplaceAll(out, "{{"+key+"}}", val)
	}
	return out
}
