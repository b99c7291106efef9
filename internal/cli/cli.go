// Package cli implements the sheetnorm command line tool, which normalizes
// workbooks from disk with the same engine the upload server uses.
package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/sheetnorm/internal/core"
	"github.com/JonMunkholm/sheetnorm/internal/logging"
	"github.com/JonMunkholm/sheetnorm/internal/workbook"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Options are the parsed command line flags.
type Options struct {
	Format      string
	Output      string
	Concurrency int
	Strategy    string
	Summary     bool
	Verbose     bool
}

// outcome is the result of one input file.
type outcome struct {
	path string
	res  *core.UploadResult
	err  error
}

// NewRootCommand builds the sheetnorm command writing rows to stdout and
// diagnostics to stderr.
func NewRootCommand() *cobra.Command {
	opts := Options{
		Format:      FormatJSON,
		Concurrency: runtime.NumCPU(),
		Strategy:    envOr("INGEST_HEADER_STRATEGY", core.HeaderStrategyFirst),
	}

	cmd := &cobra.Command{
		Use:   "sheetnorm [files...]",
		Short: "Normalize vehicle collection workbooks",
		Long: `sheetnorm reads xlsx, xls and csv workbooks, finds the header row of
every sheet, and prints the records as rows of
nopol, mobil, lesing, ovd, saldo, cabang, nama, noka, nosin.

Files are processed in parallel and emitted in argument order.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Format, "format", "f", opts.Format, "Output format: json or csv")
	flags.StringVarP(&opts.Output, "output", "o", "", "Output file path (default: stdout)")
	flags.IntVarP(&opts.Concurrency, "concurrency", "c", opts.Concurrency, "Files decoded in parallel")
	flags.StringVar(&opts.Strategy, "strategy", opts.Strategy, "Header strategy: first or best")
	flags.BoolVar(&opts.Summary, "summary", false, "Print a per-file summary to stderr")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log debug details to stderr")

	return cmd
}

// Run normalizes every file in paths and writes the combined rows.
//
// A file that fails to decode does not stop the others; Run reports it on
// stderr and returns an error once every file was processed. Run also fails
// with core.ErrNoValidData when no file yielded a record.
func Run(ctx context.Context, opts Options, paths []string, stdout, stderr io.Writer) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(stderr, level, "text"))

	reg := core.DefaultRegistry()
	engine := core.NewEngine(reg).WithResolver(core.NewResolver(opts.Strategy, reg))
	svc := core.NewService(workbook.New(), core.WithEngine(engine))

	outcomes := process(ctx, svc, paths, opts.Concurrency)

	var rows []core.OutputRow
	failed := 0
	for _, o := range outcomes {
		switch {
		case o.err != nil && !errors.Is(o.err, core.ErrNoValidData):
			failed++
			fmt.Fprintf(stderr, "%s: %s\n", o.path, core.FormatUserError(o.err))
			slog.Debug("normalize failed", "file", o.path, "error", o.err)
		case o.res != nil:
			rows = append(rows, o.res.Rows...)
		}
		if opts.Summary && o.res != nil {
			writeSummary(stderr, o.res)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeRows(opts, reg.OutputOrder(), rows, stdout); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(paths))
	}
	if len(rows) == 0 {
		return core.ErrNoValidData
	}
	return nil
}

// process normalizes paths with at most limit files in flight.
// Outcomes are returned in the order of paths.
func process(ctx context.Context, svc *core.Service, paths []string, limit int) []outcome {
	outcomes := make([]outcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := svc.NormalizeFile(gctx, filepath.Base(path), path)
			outcomes[i] = outcome{path: path, res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (o Options) validate() error {
	switch o.Format {
	case FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("invalid format %q (must be json or csv)", o.Format)
	}
	switch o.Strategy {
	case core.HeaderStrategyFirst, core.HeaderStrategyBest:
	default:
		return fmt.Errorf("invalid strategy %q (must be first or best)", o.Strategy)
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", o.Concurrency)
	}
	return nil
}

// writeRows writes rows to opts.Output, or stdout when it is empty.
func writeRows(opts Options, columns []string, rows []core.OutputRow, stdout io.Writer) (err error) {
	w := stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("failed to write output: %w", cerr)
			}
		}()
		w = f
	}

	if opts.Format == FormatCSV {
		cw := csv.NewWriter(w)
		_ = cw.Write(columns)
		for _, row := range rows {
			_ = cw.Write(row)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if rows == nil {
		rows = []core.OutputRow{}
	}
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeSummary(w io.Writer, res *core.UploadResult) {
	skipped := 0
	for _, s := range res.Sheets {
		if !s.HeaderFound {
			skipped++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d rows accepted, %d rejected, %d of %d sheets without header",
		res.FileName, len(res.Rows), res.Rejected, skipped, len(res.Sheets))
	if res.Summary.SaldoSum != nil {
		fmt.Fprintf(&b, ", saldo total %s", strconv.FormatFloat(*res.Summary.SaldoSum, 'f', -1, 64))
	}
	b.WriteString("\n")
	_, _ = io.WriteString(w, b.String())
}

func envOr(name, fallback string) string {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(name))); v != "" {
		return v
	}
	return fallback
}
