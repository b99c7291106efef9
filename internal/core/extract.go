package core

// Extractor turns the data rows below a resolved header into output rows.
type Extractor struct {
	Registry *Registry
}

// NewExtractor returns an Extractor for r.
func NewExtractor(r *Registry) *Extractor {
	return &Extractor{Registry: r}
}

// Extract converts every row after start into an OutputRow.
// Rows missing a required field are dropped.
func (e *Extractor) Extract(rows []RawRow, header HeaderMap, start int) []OutputRow {
	out, _ := e.extract(rows, header, start)
	return out
}

func (e *Extractor) extract(rows []RawRow, header HeaderMap, start int) (out []OutputRow, rejected int) {
	required := e.Registry.RequiredFields()
	order := e.Registry.OutputOrder()

	for i := start + 1; i < len(rows); i++ {
		rec := BuildRecord(rows[i], header)
		if !rec.HasAll(required) {
			rejected++
			continue
		}
		out = append(out, rec.Project(order))
	}
	return out, rejected
}

// BuildRecord reads and cleans the mapped cells of a single row.
func BuildRecord(row RawRow, header HeaderMap) Record {
	rec := make(Record, len(header))
	for key, col := range header {
		if col < 0 || col >= len(row) || row[col].IsEmpty() {
			continue
		}
		value := normalizeField(key, CleanValue(row[col].String()))
		if value != "" {
			rec[key] = value
		}
	}
	return rec
}

// HasAll reports whether rec carries a value for every key.
func (rec Record) HasAll(keys []string) bool {
	for _, key := range keys {
		if _, ok := rec[key]; !ok {
			return false
		}
	}
	return true
}

// Project lays rec out in order, filling absent fields with "".
func (rec Record) Project(order []string) OutputRow {
	row := make(OutputRow, len(order))
	for i, key := range order {
		row[i] = rec[key]
	}
	return row
}
