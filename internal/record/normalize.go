// Package record maps backend records to UI records.
package record

import "github.com/me/pbadmin/pkg/model"

// DefaultIdentityField is the PocketBase primary key field.
const DefaultIdentityField = "id"

// Normalizer copies a backend record's identity field to "id".
type Normalizer struct {
	// IdentityField names the backend's own identity field.
	IdentityField string
}

// Normalize returns a shallow copy of raw whose "id" equals
// raw[IdentityField] verbatim. No other field is touched.
func (n Normalizer) Normalize(raw model.Record) model.Record {
	field := n.IdentityField
	if field == "" {
		field = DefaultIdentityField
	}
	out := make(model.Record, len(raw)+1)
	for k, v := range raw {
		out[k] = v
	}
	out["id"] = raw[field]
	return out
}

// NormalizeAll normalizes each record, preserving order.
func (n Normalizer) NormalizeAll(raw []model.Record) []model.Record {
	out := make([]model.Record, len(raw))
	for i, r := range raw {
		out[i] = n.Normalize(r)
	}
	return out
}
