package notification

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

// Render substitutes {{name}} and {{dotted.path}} placeholders. Unknown
// paths and non-scalar values render as the empty string.
func Render(tmpl string, vars map[string]any, escape bool) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		v, ok := lookup(vars, strings.Split(path, "."))
		if !ok {
			return ""
		}
		s := format(v)
		if escape {
			s = html.EscapeString(s)
		}
		return s
	})
}

func lookup(vars map[string]any, path []string) (any, bool) {
	var cur any = vars
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("2 January 2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return format(*t)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
