package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/me/pbadmin/pkg/model"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecords writes one line per record: the id, then the remaining
// fields as key=value in name order.
func printRecords(w io.Writer, recs []model.Record) {
	fmt.Fprintf(w, "%-20s  %s\n", "ID", "FIELDS")
	fmt.Fprintf(w, "%-20s  %s\n", "--", "------")
	for _, r := range recs {
		fmt.Fprintf(w, "%-20v  %s\n", r.ID(), formatFields(r))
	}
}

// printRecord writes one field per line.
func printRecord(w io.Writer, r model.Record) {
	keys := sortedKeys(r)
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		fmt.Fprintf(w, "%-*s  %s\n", width+1, k+":", formatValue(r[k]))
	}
}

func formatFields(r model.Record) string {
	var parts []string
	for _, k := range sortedKeys(r) {
		if k == "id" {
			continue
		}
		parts = append(parts, k+"="+formatValue(r[k]))
	}
	return strings.Join(parts, " ")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func sortedKeys(r model.Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
