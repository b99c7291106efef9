package core

import (
	"reflect"
	"testing"
	"time"
)

// row builds a RawRow: strings become text cells ("" is absent), numbers
// become number cells and times become date cells.
func row(values ...any) RawRow {
	r := make(RawRow, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case string:
			if v != "" {
				r[i] = TextCell(v)
			}
		case int:
			r[i] = NumberCell(float64(v))
		case float64:
			r[i] = NumberCell(v)
		case time.Time:
			r[i] = DateCell(v)
		case bool:
			r[i] = BoolCell(v)
		}
	}
	return r
}

// filler returns n noise rows that match no field.
func filler(n int) []RawRow {
	rows := make([]RawRow, n)
	for i := range rows {
		rows[i] = row("keterangan tambahan", 1)
	}
	return rows
}

func sheetWithHeaderAt(idx, total int) []RawRow {
	rows := filler(total)
	rows[idx] = row("No Polisi", "Saldo")
	return rows
}

func TestFirstMatchResolver_MinimumRows(t *testing.T) {
	h := NewFirstMatchResolver(DefaultRegistry())

	tests := []struct {
		name   string
		rows   []RawRow
		wantOK bool
	}{
		{"empty sheet", nil, false},
		{"four rows with header", sheetWithHeaderAt(0, 4), false},
		{"five rows with header", sheetWithHeaderAt(0, 5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := h.Resolve(tt.rows)
			if ok != tt.wantOK {
				t.Errorf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestFirstMatchResolver_SearchWindow(t *testing.T) {
	h := NewFirstMatchResolver(DefaultRegistry())

	tests := []struct {
		name    string
		rows    []RawRow
		wantRow int
		wantOK  bool
	}{
		{"header at row 0", sheetWithHeaderAt(0, 12), 0, true},
		{"header at row 9 is last in window", sheetWithHeaderAt(9, 12), 9, true},
		{"header at row 10 is outside window", sheetWithHeaderAt(10, 12), -1, false},
		{"short sheet header at last row", sheetWithHeaderAt(5, 6), 5, true},
		{"no header at all", filler(8), -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, idx, ok := h.Resolve(tt.rows)
			if ok != tt.wantOK || idx != tt.wantRow {
				t.Fatalf("Resolve() = (%v, %d, %v), want row %d ok %v", header, idx, ok, tt.wantRow, tt.wantOK)
			}
			if ok {
				want := HeaderMap{FieldNopol: 0, FieldSaldo: 1}
				if !reflect.DeepEqual(header, want) {
					t.Errorf("header = %v, want %v", header, want)
				}
			}
		})
	}
}

// A header split over two rows resolves to the first row only.
func TestFirstMatchResolver_SplitHeaderStopsAtFirstRow(t *testing.T) {
	rows := []RawRow{
		row("", "", "Informasi Kendaraan"),
		row("No Polisi", "", ""),
		row("", "Saldo", "Cabang"),
		row("B 1", 100, "Jakarta"),
		row("B 2", 200, "Bandung"),
	}

	header, idx, ok := NewFirstMatchResolver(DefaultRegistry()).Resolve(rows)
	if !ok {
		t.Fatal("Resolve() ok = false")
	}
	if idx != 1 {
		t.Errorf("header row = %d, want 1", idx)
	}
	want := HeaderMap{FieldNopol: 0}
	if !reflect.DeepEqual(header, want) {
		t.Errorf("header = %v, want %v", header, want)
	}
}

func TestFirstMatchResolver_SkipsNonTextCells(t *testing.T) {
	rows := []RawRow{
		row(2024, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true),
		row("", "Nama", "Nopol"),
		row("", "Budi", "B 1"),
		row("", "Sari", "B 2"),
		row("", "Adi", "B 3"),
	}

	header, idx, ok := NewFirstMatchResolver(DefaultRegistry()).Resolve(rows)
	if !ok || idx != 1 {
		t.Fatalf("Resolve() = (%v, %d, %v), want row 1", header, idx, ok)
	}
	want := HeaderMap{FieldNama: 1, FieldNopol: 2}
	if !reflect.DeepEqual(header, want) {
		t.Errorf("header = %v, want %v", header, want)
	}
}

func TestMatchRow(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name string
		row  RawRow
		want HeaderMap
	}{
		{
			name: "field seen again moves to later column",
			row:  row("Nopol", "Saldo", "No Polisi Baru"),
			want: HeaderMap{FieldNopol: 2, FieldSaldo: 1},
		},
		{
			name: "column claimed by earliest field only",
			row:  row("Branch Full Name"),
			want: HeaderMap{FieldCabang: 0},
		},
		{
			name: "unmatched and empty cells ignored",
			row:  row("", "Tanggal", "  ", "Merk"),
			want: HeaderMap{FieldMobil: 3},
		},
		{
			name: "whitespace and case ignored",
			row:  row(" NO  POLISI ", "s a l d o"),
			want: HeaderMap{FieldNopol: 0, FieldSaldo: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchRow(r, tt.row); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("matchRow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBestRowResolver(t *testing.T) {
	reg := DefaultRegistry()
	rows := []RawRow{
		row("Laporan Overdue Bulanan"),
		row(""),
		row("No Polisi", "Jenis", "Saldo", "Cabang"),
		row("B 1", "Avanza", 100, "Jakarta"),
		row("B 2", "Xenia", 200, "Bandung"),
	}

	_, first, _ := NewFirstMatchResolver(reg).Resolve(rows)
	if first != 0 {
		t.Errorf("first-match header row = %d, want 0", first)
	}

	header, best, ok := NewBestRowResolver(reg).Resolve(rows)
	if !ok || best != 2 {
		t.Fatalf("best-row Resolve() = (%v, %d, %v), want row 2", header, best, ok)
	}
	if len(header) != 4 {
		t.Errorf("header maps %d fields, want 4", len(header))
	}
}

func TestBestRowResolver_TieGoesToEarliest(t *testing.T) {
	rows := []RawRow{
		row("Nopol", "Saldo"),
		row("Nama", "Cabang"),
		row("B 1", 100),
		row("B 2", 200),
		row("B 3", 300),
	}

	_, idx, ok := NewBestRowResolver(DefaultRegistry()).Resolve(rows)
	if !ok || idx != 0 {
		t.Errorf("Resolve() = (%d, %v), want (0, true)", idx, ok)
	}
}

func TestBestRowResolver_NotFound(t *testing.T) {
	h := NewBestRowResolver(DefaultRegistry())

	if _, idx, ok := h.Resolve(filler(7)); ok || idx != -1 {
		t.Errorf("Resolve(no header) = (%d, %v), want (-1, false)", idx, ok)
	}
	if _, _, ok := h.Resolve(sheetWithHeaderAt(0, 4)); ok {
		t.Error("Resolve(4 rows) ok = true, want false")
	}
}

func TestNewResolver(t *testing.T) {
	reg := DefaultRegistry()

	if _, ok := NewResolver(HeaderStrategyBest, reg).(*BestRowResolver); !ok {
		t.Error("NewResolver(best) did not return a BestRowResolver")
	}
	for _, name := range []string{HeaderStrategyFirst, "", "unknown"} {
		if _, ok := NewResolver(name, reg).(*FirstMatchResolver); !ok {
			t.Errorf("NewResolver(%q) did not return a FirstMatchResolver", name)
		}
	}
}
