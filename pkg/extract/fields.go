package extract

import (
	"regexp"
	"strings"
)

var (
	reAcronym  = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	reCamel    = regexp.MustCompile(`([a-z\d])([A-Z])`)
	reNonAlnum = regexp.MustCompile(`[^A-Za-z\d]+`)
)

// FoldName turns "internalId", "record_type" or "ItemType" into the spaced
// lower-case form used to recognize fields ("internal id", "record type",
// "item type").
func FoldName(s string) string {
	s = reAcronym.ReplaceAllString(s, "${1} ${2}")
	s = reCamel.ReplaceAllString(s, "${1} ${2}")
	s = reNonAlnum.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// collapse turns a value list into a scalar when it holds one value, and
// into "" when it holds none.
func collapse(values []string) any {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		out := make([]string, len(values))
		copy(out, values)
		return out
	}
}

// splitBrackets splits "a[b][c]" into ["a", "b", "c"]. A trailing "[]" is
// dropped. ok is false when name has no bracket notation.
func splitBrackets(name string) ([]string, bool) {
	name = strings.TrimSuffix(name, "[]")
	open := strings.IndexByte(name, '[')
	if open <= 0 || !strings.HasSuffix(name, "]") {
		return nil, false
	}
	keys := []string{name[:open]}
	rest := name[open:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, false
		}
		keys = append(keys, rest[1:end])
		rest = rest[end+1:]
	}
	return keys, true
}

// nest wraps v in one map level per key, outermost first.
func nest(keys []string, v any) any {
	for i := len(keys) - 1; i >= 0; i-- {
		v = map[string]any{keys[i]: v}
	}
	return v
}

// mergeValues merges b into a recursively: maps merge key by key, anything
// else accumulates into a list.
func mergeValues(a, b any) any {
	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		for k, v := range bm {
			if existing, ok := am[k]; ok {
				am[k] = mergeValues(existing, v)
			} else {
				am[k] = v
			}
		}
		return am
	}
	return append(toList(a), toList(b)...)
}

func toList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return []any{t}
	}
}
