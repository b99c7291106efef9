package core

// MinSheetRows is the smallest sheet that can hold a header plus data.
const MinSheetRows = 5

// HeaderSearchRows is how many leading rows are scanned for the header.
const HeaderSearchRows = 10

// HeaderResolver locates the header row of a sheet and maps fields to columns.
// ok is false when the sheet has no recognizable header; that is not an error.
type HeaderResolver interface {
	Resolve(rows []RawRow) (header HeaderMap, row int, ok bool)
}

// FirstMatchResolver returns the first row in the search window that matches
// at least one field, even if other fields stay unmapped.
//
// Headers split across two rows are not supported: resolution stops at the
// first row yielding a match.
type FirstMatchResolver struct {
	Registry *Registry
}

// NewFirstMatchResolver returns the default header strategy for r.
func NewFirstMatchResolver(r *Registry) *FirstMatchResolver {
	return &FirstMatchResolver{Registry: r}
}

// Resolve implements HeaderResolver.
func (h *FirstMatchResolver) Resolve(rows []RawRow) (HeaderMap, int, bool) {
	if len(rows) < MinSheetRows {
		return nil, -1, false
	}

	for i := 0; i < min(HeaderSearchRows, len(rows)); i++ {
		if header := matchRow(h.Registry, rows[i]); len(header) > 0 {
			return header, i, true
		}
	}
	return nil, -1, false
}

// BestRowResolver scans the whole search window and picks the row that maps
// the most fields. Ties go to the earliest row.
type BestRowResolver struct {
	Registry *Registry
}

// NewBestRowResolver returns a scoring header strategy for r.
func NewBestRowResolver(r *Registry) *BestRowResolver {
	return &BestRowResolver{Registry: r}
}

// Resolve implements HeaderResolver.
func (h *BestRowResolver) Resolve(rows []RawRow) (HeaderMap, int, bool) {
	if len(rows) < MinSheetRows {
		return nil, -1, false
	}

	var best HeaderMap
	bestRow := -1
	for i := 0; i < min(HeaderSearchRows, len(rows)); i++ {
		header := matchRow(h.Registry, rows[i])
		if len(header) > len(best) {
			best, bestRow = header, i
		}
	}
	if bestRow < 0 {
		return nil, -1, false
	}
	return best, bestRow, true
}

// matchRow maps the text cells of one row to fields. Each column is claimed
// by at most one field; a field seen again further right moves to the later
// column.
func matchRow(r *Registry, row RawRow) HeaderMap {
	header := make(HeaderMap)
	for col, cell := range row {
		if cell.Kind != CellText || cell.Text == "" {
			continue
		}
		if key, ok := r.Lookup(NormalizeHeader(cell.Text)); ok {
			header[key] = col
		}
	}
	return header
}
