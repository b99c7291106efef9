// Package templates renders the HTML pages of the upload UI as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// UploadForm describes the upload page.
type UploadForm struct {
	Action      string
	FieldName   string
	MaxFileSize int64
	Strategy    string
	Fields      []core.FieldSpec
}

// ResultView describes a processed upload rendered as HTML.
type ResultView struct {
	Result  *core.UploadResult
	Columns []string
	// PreviewRows caps how many rows are rendered; the JSON and CSV formats
	// always carry every row.
	PreviewRows int
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:64rem;color:#1f2937}
table{border-collapse:collapse;width:100%%;font-size:.875rem}
th,td{border:1px solid #e5e7eb;padding:.25rem .5rem;text-align:left}
th{background:#f3f4f6}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;border-radius:.5rem}
.muted{color:#6b7280}
code{background:#f3f4f6;padding:0 .25rem}
</style>
</head>
<body>
`

const pageFoot = "</body>\n</html>\n"

// layout wraps body in the shared page chrome.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, pageHead, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, pageFoot)
		return err
	})
}

// UploadPage renders the workbook upload form and the recognized field table.
func UploadPage(f UploadForm) templ.Component {
	return layout("Upload collection workbook", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<h1>Upload collection workbook</h1>\n")
		fmt.Fprintf(&b, `<p class="muted">Accepts .xlsx, .xls and .csv files up to %s. Header strategy: <code>%s</code>.</p>`+"\n",
			humanSize(f.MaxFileSize), templ.EscapeString(f.Strategy))
		fmt.Fprintf(&b, `<form method="post" action="%s" enctype="multipart/form-data">`+"\n", templ.EscapeString(f.Action))
		fmt.Fprintf(&b, `<input type="file" name="%s" accept=".xlsx,.xls,.csv" required>`+"\n", templ.EscapeString(f.FieldName))
		b.WriteString(`<button type="submit">Normalize</button>` + "\n</form>\n")

		b.WriteString("<h2>Recognized columns</h2>\n<table>\n<tr><th>Field</th><th>Required</th><th>Header contains</th></tr>\n")
		for _, spec := range f.Fields {
			required := ""
			if spec.Required {
				required = "yes"
			}
			fmt.Fprintf(&b, "<tr><td><code>%s</code></td><td>%s</td><td>%s</td></tr>\n",
				templ.EscapeString(spec.Key), required, templ.EscapeString(strings.Join(spec.Aliases, ", ")))
		}
		b.WriteString("</table>\n")

		_, err := io.WriteString(w, b.String())
		return err
	}))
}

// ResultPage renders the sheet reports and a preview of the normalized rows.
func ResultPage(v ResultView) templ.Component {
	res := v.Result
	return layout(res.FileName, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, "<h1>%s</h1>\n", templ.EscapeString(res.FileName))
		fmt.Fprintf(&b, `<p class="muted">Upload %s: %d rows accepted, %d rejected in %s.</p>`+"\n",
			templ.EscapeString(res.UploadID), len(res.Rows), res.Rejected, res.Duration.Round(time.Millisecond))
		if res.Summary.SaldoSum != nil {
			fmt.Fprintf(&b, "<p>Saldo total %s over %d rows.</p>\n",
				strconv.FormatFloat(*res.Summary.SaldoSum, 'f', -1, 64), res.Summary.SaldoCount)
		}

		b.WriteString("<h2>Sheets</h2>\n<table>\n<tr><th>Sheet</th><th>Header row</th><th>Accepted</th><th>Rejected</th></tr>\n")
		for _, s := range res.Sheets {
			headerRow := "none"
			if s.HeaderFound {
				headerRow = strconv.Itoa(s.HeaderRow + 1)
			}
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%d</td></tr>\n",
				templ.EscapeString(s.Name), headerRow, s.Accepted, s.Rejected)
		}
		b.WriteString("</table>\n")

		b.WriteString("<h2>Rows</h2>\n<table>\n<tr>")
		for _, col := range v.Columns {
			fmt.Fprintf(&b, "<th>%s</th>", templ.EscapeString(col))
		}
		b.WriteString("</tr>\n")
		for i, row := range res.Rows {
			if v.PreviewRows > 0 && i >= v.PreviewRows {
				fmt.Fprintf(&b, `<tr><td colspan="%d" class="muted">%d more rows not shown</td></tr>`+"\n",
					len(v.Columns), len(res.Rows)-i)
				break
			}
			b.WriteString("<tr>")
			for _, cell := range row {
				fmt.Fprintf(&b, "<td>%s</td>", templ.EscapeString(cell))
			}
			b.WriteString("</tr>\n")
		}
		b.WriteString("</table>\n")

		_, err := io.WriteString(w, b.String())
		return err
	}))
}

// ErrorAlert renders a user-facing error with its suggested action and code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert" role="alert">` + "\n")
		fmt.Fprintf(&b, "<strong>%s</strong>\n", templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, "<p>%s</p>\n", templ.EscapeString(action))
		}
		fmt.Fprintf(&b, `<p class="muted">Code: %s</p>`+"\n", templ.EscapeString(code))
		b.WriteString(`<p><a href="/">Upload another file</a></p>` + "\n</div>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorPage wraps ErrorAlert in a full page.
func ErrorPage(message, action, code string) templ.Component {
	return layout("Upload failed", ErrorAlert(message, action, code))
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + " MB"
	case n >= 1<<10 && n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}
