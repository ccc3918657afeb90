package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is a UI record: field name to value. Records handed to the UI
// always carry an "id" key.
type Record map[string]any

// ID returns the record's identity value, or nil when absent.
func (r Record) ID() any {
	return r["id"]
}

// String returns the named field when it is a string, else "".
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// FilterEntry is one field/value pair of a FilterSpec.
type FilterEntry struct {
	Field string
	Value any
}

// FilterSpec is an ordered set of field filters, ANDed together.
// Order is insertion order and is kept through JSON decoding.
type FilterSpec []FilterEntry

// NewFilterSpec returns an empty FilterSpec.
func NewFilterSpec() FilterSpec {
	return FilterSpec{}
}

// With returns f extended with field=value. An existing entry for field is
// replaced in place.
func (f FilterSpec) With(field string, value any) FilterSpec {
	for i, e := range f {
		if e.Field == field {
			out := append(FilterSpec(nil), f...)
			out[i].Value = value
			return out
		}
	}
	return append(f, FilterEntry{Field: field, Value: value})
}

// Validate reports entries with empty field names or non-scalar values.
func (f FilterSpec) Validate() error {
	var details []FieldError
	for _, e := range f {
		if strings.TrimSpace(e.Field) == "" {
			details = append(details, FieldError{Field: "filter", Message: "empty field name"})
			continue
		}
		if !IsScalar(e.Value) {
			details = append(details, FieldError{
				Field:   "filter." + e.Field,
				Message: fmt.Sprintf("must be a string, number or boolean, got %T", e.Value),
			})
		}
	}
	if len(details) > 0 {
		return NewValidationError("invalid filter", details...)
	}
	return nil
}

// IsScalar reports whether v is a string, boolean or number.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// UnmarshalJSON decodes a JSON object keeping key order. Numbers decode as
// json.Number so they stringify exactly as written.
func (f *FilterSpec) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("filter: expected JSON object")
	}

	out := FilterSpec{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("filter %q: %w", key, err)
		}
		out = out.With(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = out
	return out.Validate()
}

// MarshalJSON encodes the spec as a JSON object in insertion order.
func (f FilterSpec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Field)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SortOrder is the direction of a SortSpec.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// ParseOrder parses a sort direction. Empty input yields SortAsc.
func ParseOrder(s string) (SortOrder, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC", "ASCENDING":
		return SortAsc, nil
	case "DESC", "DESCENDING":
		return SortDesc, nil
	}
	return "", NewValidationError("invalid sort order",
		FieldError{Field: "order", Message: fmt.Sprintf("%q is not ASC or DESC", s)})
}

// SortSpec is a single active sort field plus direction.
type SortSpec struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// WithDefaults fills an empty field with "id" and an empty order with ASC.
func (s SortSpec) WithDefaults() SortSpec {
	if s.Field == "" {
		s.Field = "id"
	}
	if s.Order == "" {
		s.Order = SortAsc
	}
	return s
}

// String renders the backend sort string: "+field" for ascending,
// "-field" for descending.
func (s SortSpec) String() string {
	s = s.WithDefaults()
	if s.Order == SortAsc {
		return "+" + s.Field
	}
	return "-" + s.Field
}

// PageSpec is a one-based page number and a page size.
type PageSpec struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// Default page settings.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// WithDefaults replaces zero fields with page 1 and size 10.
func (p PageSpec) WithDefaults() PageSpec {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PerPage == 0 {
		p.PerPage = DefaultPerPage
	}
	return p
}

// Validate rejects negative page numbers or sizes.
func (p PageSpec) Validate() error {
	var details []FieldError
	if p.Page < 0 {
		details = append(details, FieldError{Field: "page", Message: "must be >= 1"})
	}
	if p.PerPage < 0 {
		details = append(details, FieldError{Field: "perPage", Message: "must be >= 1"})
	}
	if len(details) > 0 {
		return NewValidationError("invalid pagination", details...)
	}
	return nil
}
