package web

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetnorm/internal/core"
	"github.com/JonMunkholm/sheetnorm/internal/logging"
	"github.com/JonMunkholm/sheetnorm/internal/web/templates"
)

// multipartOverhead is the body allowance on top of the file size for
// boundaries and part headers.
const multipartOverhead = 1 << 20

// htmlPreviewRows caps the rows rendered on the HTML result page.
const htmlPreviewRows = 500

var errFileTooLarge = errors.New("file too large")

// handleUpload normalizes one uploaded workbook.
//
// The file part is streamed into a temp file, decoded, and removed again
// before the handler returns. The response is a JSON array of output rows,
// CSV when the caller asks for it, or an HTML report for the upload form.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	path, fileName, err := s.receiveFile(r)
	if err != nil {
		respondError(w, r, err, uploadStatus(err))
		return
	}
	defer removeTemp(r.Context(), path)

	ctx := WithRequestMetadata(r.Context(), r)
	if s.cfg.Upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Upload.Timeout)
		defer cancel()
	}

	res, err := s.service.NormalizeFile(ctx, fileName, path)
	if err != nil {
		respondError(w, r, err, uploadStatus(err))
		return
	}

	logging.WithFields(r.Context(),
		"upload_id", res.UploadID,
		"file", res.FileName,
	).Info("upload normalized",
		"rows", len(res.Rows),
		"rejected", res.Rejected,
		"sheets", len(res.Sheets),
		"duration_ms", res.Duration.Milliseconds(),
	)

	w.Header().Set("X-Upload-ID", res.UploadID)
	w.Header().Set("X-Rows-Accepted", strconv.Itoa(len(res.Rows)))

	columns := s.service.Registry().OutputOrder()
	switch {
	case wantsHTML(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		view := templates.ResultView{Result: res, Columns: columns, PreviewRows: htmlPreviewRows}
		if err := templates.ResultPage(view).Render(r.Context(), w); err != nil {
			slog.Error("render result page", "error", err)
		}
	case wantsCSV(r):
		writeCSV(w, res, columns)
	default:
		writeJSON(w, http.StatusOK, res.Rows)
	}
}

// receiveFile streams the configured file field into a temp file and returns
// its path together with the client file name.
func (s *Server) receiveFile(r *http.Request) (path, fileName string, err error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return "", "", errNoFile
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return "", "", errNoFile
		}
		if err != nil {
			return "", "", fmt.Errorf("read upload: %w", err)
		}

		if part.FormName() != s.cfg.Upload.FieldName || part.FileName() == "" {
			part.Close()
			continue
		}

		fileName = part.FileName()
		path, err = s.saveTemp(part)
		part.Close()
		return path, fileName, err
	}
}

// saveTemp copies src into a new file under the upload temp dir.
// Files larger than MaxFileSize are removed and rejected.
func (s *Server) saveTemp(src io.Reader) (string, error) {
	f, err := os.CreateTemp(s.cfg.Upload.TempDir, "sheetnorm-*.upload")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	limit := s.cfg.Upload.MaxFileSize
	n, err := io.Copy(f, io.LimitReader(src, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = errFileTooLarge
	}
	if err != nil {
		removeTemp(context.Background(), f.Name())
		return "", fmt.Errorf("save upload: %w", err)
	}
	return f.Name(), nil
}

// removeTemp deletes an upload temp file, logging failures.
func removeTemp(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Warn("failed to remove upload temp file", "path", path, "error", err)
	}
}

// writeCSV writes the header row of output keys followed by every row.
func writeCSV(w http.ResponseWriter, res *core.UploadResult, columns []string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment",
		map[string]string{"filename": csvFileName(res.FileName)}))

	cw := csv.NewWriter(w)
	_ = cw.Write(columns)
	for _, row := range res.Rows {
		_ = cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("csv write error", "upload_id", res.UploadID, "error", err)
	}
}

// csvFileName derives the download name from the uploaded file name.
func csvFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "upload"
	}
	return base + "-normalized.csv"
}
