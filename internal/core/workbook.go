package core

// Engine runs header resolution and extraction over every sheet of a workbook.
// It holds no mutable state and may be shared between goroutines.
type Engine struct {
	Registry  *Registry
	Resolver  HeaderResolver
	Extractor *Extractor
}

// NewEngine returns an Engine using the first-match header strategy.
func NewEngine(r *Registry) *Engine {
	return &Engine{
		Registry:  r,
		Resolver:  NewFirstMatchResolver(r),
		Extractor: NewExtractor(r),
	}
}

// WithResolver returns a copy of e that uses h to find headers.
func (e *Engine) WithResolver(h HeaderResolver) *Engine {
	cp := *e
	cp.Resolver = h
	return &cp
}

// Process normalizes wb. Sheets without a header contribute nothing; the
// rows of the result are in sheet order, then row order.
func (e *Engine) Process(wb *Workbook) *Result {
	res := &Result{Sheets: make([]SheetReport, 0, len(wb.Sheets))}

	for _, sheet := range wb.Sheets {
		report := SheetReport{Name: sheet.Name, HeaderRow: -1}

		header, start, ok := e.Resolver.Resolve(sheet.Rows)
		if ok {
			rows, rejected := e.Extractor.extract(sheet.Rows, header, start)
			res.Rows = append(res.Rows, rows...)

			report.HeaderFound = true
			report.HeaderRow = start
			report.Columns = header
			report.Accepted = len(rows)
			report.Rejected = rejected
		}
		res.Sheets = append(res.Sheets, report)
	}
	return res
}

// NewResolver returns the header strategy registered under name.
// Unknown names fall back to the first-match strategy.
func NewResolver(name string, r *Registry) HeaderResolver {
	switch name {
	case HeaderStrategyBest:
		return NewBestRowResolver(r)
	default:
		return NewFirstMatchResolver(r)
	}
}

// Header strategy names accepted by NewResolver.
const (
	HeaderStrategyFirst = "first"
	HeaderStrategyBest  = "best"
)
