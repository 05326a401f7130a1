package prompt

import (
	"strings"
)

// Render substitutes {{name}} placeholders with the matching values.
// Array values are joined one item per line. Placeholders without a value
// are left untouched.
func Render(tmpl string, values map[string]any) string {
	pairs := make([]string, 0, len(values)*2)
	for name, v := range values {
		pairs = append(pairs, "{{"+name+"}}", stringify(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			lines = append(lines, stringify(item))
		}
		return strings.Join(lines, "\n")
	case []string:
		return strings.Join(t, "\n")
	default:
		return strings.TrimSpace(strings.Trim(toJSON(t), `"`))
	}
}
