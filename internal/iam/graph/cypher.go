package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// cypherPrologue serializes query parameters into a `CYPHER k=v ...` prefix.
// Values are bound server-side by the graph engine; nothing user-controlled
// is ever spliced into the pattern text itself.
func cypherPrologue(params map[string]any) (string, error) {
	if len(params) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("CYPHER ")
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		switch v := params[k].(type) {
		case int:
			b.WriteString(strconv.Itoa(v))
		case int64:
			b.WriteString(strconv.FormatInt(v, 10))
		case string:
			b.WriteString(quoteCypherString(v))
		case bool:
			b.WriteString(strconv.FormatBool(v))
		default:
			return "", fmt.Errorf("unsupported cypher parameter type %T for %q", v, k)
		}
		b.WriteByte(' ')
	}
	return b.String(), nil
}

// quoteCypherString double-quotes s, escaping backslashes and quotes.
func quoteCypherString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '"':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
