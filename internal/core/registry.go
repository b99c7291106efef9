package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Canonical field keys.
const (
	FieldNopol  = "nopol"
	FieldMobil  = "mobil"
	FieldLesing = "lesing"
	FieldOvd    = "ovd"
	FieldSaldo  = "saldo"
	FieldCabang = "cabang"
	FieldNama   = "nama"
	FieldNoka   = "noka"
	FieldNosin  = "nosin"
)

// FieldSpec describes how a canonical field is recognized in a header row.
type FieldSpec struct {
	Key      string   `json:"key"`
	Aliases  []string `json:"aliases"` // normalized substrings, checked in order
	Required bool     `json:"required"`
}

// Registry is an ordered, read-only table of field specs plus the output column order.
//
// Lookup order is declaration order: when aliases of two fields both occur in a
// header cell, the field declared first claims it. A Registry is safe for
// concurrent use once constructed.
type Registry struct {
	specs    []FieldSpec
	order    []string
	required []string
}

// NewRegistry validates specs and order and builds a Registry.
// order must list every registered key exactly once.
func NewRegistry(specs []FieldSpec, order []string) (*Registry, error) {
	var errs []string

	keys := make(map[string]bool, len(specs))
	var required []string
	for i, spec := range specs {
		if spec.Key == "" {
			errs = append(errs, fmt.Sprintf("field %d has an empty key", i))
			continue
		}
		if keys[spec.Key] {
			errs = append(errs, fmt.Sprintf("field %q registered twice", spec.Key))
			continue
		}
		keys[spec.Key] = true

		if len(spec.Aliases) == 0 {
			errs = append(errs, fmt.Sprintf("field %q has no aliases", spec.Key))
		}
		for _, alias := range spec.Aliases {
			if alias == "" || NormalizeHeader(alias) != alias {
				errs = append(errs, fmt.Sprintf("field %q alias %q must be lowercase without whitespace", spec.Key, alias))
			}
		}
		if spec.Required {
			required = append(required, spec.Key)
		}
	}

	if len(required) == 0 && len(specs) > 0 {
		errs = append(errs, "at least one field must be required")
	}

	seen := make(map[string]bool, len(order))
	for _, key := range order {
		if !keys[key] {
			errs = append(errs, fmt.Sprintf("output order lists unknown field %q", key))
			continue
		}
		if seen[key] {
			errs = append(errs, fmt.Sprintf("output order lists %q twice", key))
			continue
		}
		seen[key] = true
	}
	for key := range keys {
		if !seen[key] {
			errs = append(errs, fmt.Sprintf("output order is missing field %q", key))
		}
	}

	if len(errs) > 0 {
		return nil, errors.New("invalid field registry:\n  - " + strings.Join(errs, "\n  - "))
	}

	r := &Registry{
		specs:    make([]FieldSpec, len(specs)),
		order:    append([]string(nil), order...),
		required: required,
	}
	for i, spec := range specs {
		spec.Aliases = append([]string(nil), spec.Aliases...)
		r.specs[i] = spec
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on an invalid configuration.
func MustRegistry(specs []FieldSpec, order []string) *Registry {
	r, err := NewRegistry(specs, order)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the key of the first field with an alias contained in cell.
// cell must already be normalized with NormalizeHeader.
func (r *Registry) Lookup(cell string) (string, bool) {
	for _, spec := range r.specs {
		for _, alias := range spec.Aliases {
			if strings.Contains(cell, alias) {
				return spec.Key, true
			}
		}
	}
	return "", false
}

// RequiredFields returns the keys a record must carry to be emitted.
func (r *Registry) RequiredFields() []string {
	return append([]string(nil), r.required...)
}

// OutputOrder returns the emitted column order.
func (r *Registry) OutputOrder() []string {
	return append([]string(nil), r.order...)
}

// Fields returns the field specs in declaration order.
func (r *Registry) Fields() []FieldSpec {
	out := make([]FieldSpec, len(r.specs))
	for i, spec := range r.specs {
		spec.Aliases = append([]string(nil), spec.Aliases...)
		out[i] = spec
	}
	return out
}

// Len returns the number of registered fields.
func (r *Registry) Len() int { return len(r.specs) }

// NormalizeHeader lowercases s and removes every whitespace character.
func NormalizeHeader(s string) string {
	return strings.Map(func(r rune) rune {
		if isSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

var defaultRegistry = MustRegistry([]FieldSpec{
	{Key: FieldNopol, Required: true, Aliases: []string{"licenseplate", "nopolisi", "nopol", "plate", "vehicleplate"}},
	{Key: FieldMobil, Aliases: []string{"unit", "assettype", "merk", "type", "jeniskendaraan", "mobil", "jenis", "typeunit", "vehicle"}},
	{Key: FieldLesing, Aliases: []string{"lesing", "leasing", "lesng", "finance", "financing"}},
	{Key: FieldOvd, Aliases: []string{"overdue", "ovd", "daysoverdue", "overdu", "hari", "keterlambatan", "dayslate"}},
	{Key: FieldSaldo, Aliases: []string{"saldo", "credit", "balance", "amount", "remaining"}},
	{Key: FieldCabang, Aliases: []string{"branchfullname", "cabang", "branch", "office", "location"}},
	{Key: FieldNama, Aliases: []string{"nama", "name", "fullname", "customername", "owner"}},
	{Key: FieldNoka, Aliases: []string{"chasisno", "nomorrangka", "norangka", "no.rangka", "noka", "chassis", "frame"}},
	{Key: FieldNosin, Aliases: []string{"nomesin", "nomormesin", "no.mesin", "nosin", "engine", "engineno"}},
}, []string{
	FieldNopol, FieldMobil, FieldLesing, FieldOvd, FieldSaldo, FieldCabang, FieldNama, FieldNoka, FieldNosin,
})

// DefaultRegistry returns the built-in vehicle collections field table.
func DefaultRegistry() *Registry { return defaultRegistry }
