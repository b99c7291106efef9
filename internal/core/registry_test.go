package core

import (
	"reflect"
	"strings"
	"testing"
)

func TestDefaultRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		header  string
		wantKey string
		wantOK  bool
	}{
		{"No Polisi", FieldNopol, true},
		{"NOPOL", FieldNopol, true},
		{"License Plate", FieldNopol, true},
		{"Jenis Kendaraan", FieldMobil, true},
		{"Type Unit", FieldMobil, true},
		{"Leasing", FieldLesing, true},
		{"Days Overdue", FieldOvd, true},
		{"OVD", FieldOvd, true},
		{"Sisa Saldo", FieldSaldo, true},
		{"Remaining Balance", FieldSaldo, true},
		{"Cabang", FieldCabang, true},
		{"Nama Debitur", FieldNama, true},
		{"Customer Name", FieldNama, true},
		{"No. Rangka", FieldNoka, true},
		{"Chassis", FieldNoka, true},
		{"No. Mesin", FieldNosin, true},
		{"Engine No", FieldNosin, true},
		{"Tanggal", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			key, ok := r.Lookup(NormalizeHeader(tt.header))
			if ok != tt.wantOK || key != tt.wantKey {
				t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.header, key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}
}

// Earlier fields win when aliases of several fields occur in one cell.
func TestDefaultRegistry_LookupTieBreak(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		header  string
		wantKey string
	}{
		// "name" (nama) also occurs, but cabang is declared first
		{"Branch Full Name", FieldCabang},
		// "vehicle" (mobil) also occurs, but nopol is declared first
		{"Vehicle Plate", FieldNopol},
		// "unit" (mobil) beats "owner" (nama)
		{"Unit Owner", FieldMobil},
		// "finance" (lesing) beats "amount" (saldo)
		{"Finance Amount", FieldLesing},
		// "hari" (ovd) is a substring of "sehari"
		{"Saldo Sehari", FieldOvd},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			key, _ := r.Lookup(NormalizeHeader(tt.header))
			if key != tt.wantKey {
				t.Errorf("Lookup(%q) = %q, want %q", tt.header, key, tt.wantKey)
			}
		})
	}
}

func TestDefaultRegistry_Contract(t *testing.T) {
	r := DefaultRegistry()

	wantOrder := []string{"nopol", "mobil", "lesing", "ovd", "saldo", "cabang", "nama", "noka", "nosin"}
	if got := r.OutputOrder(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("OutputOrder() = %v, want %v", got, wantOrder)
	}
	if got := r.RequiredFields(); !reflect.DeepEqual(got, []string{FieldNopol}) {
		t.Errorf("RequiredFields() = %v, want [nopol]", got)
	}
	if r.Len() != 9 {
		t.Errorf("Len() = %d, want 9", r.Len())
	}

	// Returned slices are copies.
	order := r.OutputOrder()
	order[0] = "mutated"
	if r.OutputOrder()[0] != FieldNopol {
		t.Error("OutputOrder() exposes internal state")
	}
	fields := r.Fields()
	fields[0].Aliases[0] = "mutated"
	if r.Fields()[0].Aliases[0] == "mutated" {
		t.Error("Fields() exposes internal alias slices")
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	valid := []FieldSpec{
		{Key: "a", Aliases: []string{"alpha"}, Required: true},
		{Key: "b", Aliases: []string{"beta"}},
	}

	tests := []struct {
		name    string
		specs   []FieldSpec
		order   []string
		wantErr string
	}{
		{
			name:  "valid",
			specs: valid,
			order: []string{"b", "a"},
		},
		{
			name:    "order missing a field",
			specs:   valid,
			order:   []string{"a"},
			wantErr: `output order is missing field "b"`,
		},
		{
			name:    "order lists unknown field",
			specs:   valid,
			order:   []string{"a", "b", "c"},
			wantErr: `output order lists unknown field "c"`,
		},
		{
			name:    "order lists field twice",
			specs:   valid,
			order:   []string{"a", "b", "a"},
			wantErr: `output order lists "a" twice`,
		},
		{
			name:    "duplicate key",
			specs:   append(append([]FieldSpec{}, valid...), FieldSpec{Key: "a", Aliases: []string{"again"}}),
			order:   []string{"a", "b"},
			wantErr: `field "a" registered twice`,
		},
		{
			name:    "empty key",
			specs:   append(append([]FieldSpec{}, valid...), FieldSpec{Aliases: []string{"x"}}),
			order:   []string{"a", "b"},
			wantErr: "field 2 has an empty key",
		},
		{
			name:    "no aliases",
			specs:   []FieldSpec{{Key: "a", Required: true}},
			order:   []string{"a"},
			wantErr: `field "a" has no aliases`,
		},
		{
			name:    "alias not normalized",
			specs:   []FieldSpec{{Key: "a", Aliases: []string{"No Polisi"}, Required: true}},
			order:   []string{"a"},
			wantErr: `alias "No Polisi" must be lowercase without whitespace`,
		},
		{
			name:    "nothing required",
			specs:   []FieldSpec{{Key: "a", Aliases: []string{"alpha"}}},
			order:   []string{"a"},
			wantErr: "at least one field must be required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.specs, tt.order)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("NewRegistry() error = %v", err)
				}
				if r == nil {
					t.Fatal("NewRegistry() returned nil registry")
				}
				return
			}
			if err == nil {
				t.Fatalf("NewRegistry() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewRegistry() error = %q, want it to contain %q", err, tt.wantErr)
			}
			if !strings.HasPrefix(err.Error(), "invalid field registry") {
				t.Errorf("error %q lacks the registry prefix", err)
			}
		})
	}
}

func TestNewRegistry_AggregatesErrors(t *testing.T) {
	_, err := NewRegistry([]FieldSpec{{Key: "a"}}, []string{"b"})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"no aliases", "at least one field", `unknown field "b"`, `missing field "a"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestMustRegistry_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegistry did not panic on invalid configuration")
		}
	}()
	MustRegistry([]FieldSpec{{Key: "a", Aliases: []string{"a"}}}, nil)
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"No Polisi", "nopolisi"},
		{"  NO.\tRANGKA \n", "no.rangka"},
		{"\uFEFFNopol", "nopol"},
		{"Branch Full Name", "branchfullname"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeHeader(tt.in); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
