// Package filter renders generic UI filters as PocketBase filter expressions.
//
// String values match by substring (`field ~ "value"`), everything else by
// equality (`field = "value"`). Clauses are ANDed in insertion order so the
// output is deterministic.
package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/me/pbadmin/pkg/model"
)

const (
	and = " && "
	or  = " || "
)

// Build renders f as a conjunction. An empty spec yields "".
func Build(f model.FilterSpec) string {
	clauses := make([]string, 0, len(f))
	for _, e := range f {
		if s, ok := e.Value.(string); ok {
			clauses = append(clauses, fmt.Sprintf(`%s ~ "%s"`, e.Field, quote(s)))
			continue
		}
		clauses = append(clauses, fmt.Sprintf(`%s = "%s"`, e.Field, quote(Stringify(e.Value))))
	}
	return strings.Join(clauses, and)
}

// Reference renders the mandatory `target="id"` clause followed by extra.
// The reference clause is always equality and always first.
func Reference(target string, id any, extra model.FilterSpec) string {
	clause := fmt.Sprintf(`%s="%s"`, target, quote(Stringify(id)))
	if rest := Build(extra); rest != "" {
		return clause + and + rest
	}
	return clause
}

// AnyID renders a disjunction of id equality clauses, one per id.
func AnyID(ids []any) string {
	clauses := make([]string, len(ids))
	for i, id := range ids {
		clauses[i] = fmt.Sprintf(`id="%s"`, quote(Stringify(id)))
	}
	return strings.Join(clauses, or)
}

// Stringify renders a scalar the way it appears inside a filter literal.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		// Integers keep their exact digits; other numbers print in shortest
		// form, so 5.0 renders as 5.
		if _, err := x.Int64(); err == nil {
			return x.String()
		}
		if f, err := x.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote escapes s for use inside a double-quoted filter literal.
func quote(s string) string {
	return escaper.Replace(s)
}
