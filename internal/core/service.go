package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Decoder reads a spreadsheet file into a Workbook.
// Implementations return a *DecodeError when the file cannot be read at all.
type Decoder interface {
	Decode(ctx context.Context, name, path string) (*Workbook, error)
}

// HistoryRecorder persists a summary of each processed upload.
type HistoryRecorder interface {
	RecordUpload(ctx context.Context, res *UploadResult) error
}

// Service ties decoding, normalization and history together.
// It is safe for concurrent use.
type Service struct {
	engine  *Engine
	decoder Decoder
	limiter *UploadLimiter
	history HistoryRecorder
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEngine replaces the default first-match engine.
func WithEngine(e *Engine) ServiceOption {
	return func(s *Service) { s.engine = e }
}

// WithLimiter bounds concurrent NormalizeFile calls.
func WithLimiter(l *UploadLimiter) ServiceOption {
	return func(s *Service) { s.limiter = l }
}

// WithHistory records every decoded upload in h.
func WithHistory(h HistoryRecorder) ServiceOption {
	return func(s *Service) { s.history = h }
}

// NewService creates a Service reading files with decoder.
func NewService(decoder Decoder, opts ...ServiceOption) *Service {
	s := &Service{
		engine:  NewEngine(DefaultRegistry()),
		decoder: decoder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the field registry used by the engine.
func (s *Service) Registry() *Registry {
	return s.engine.Registry
}

// UploadLimiterStatus reports limiter usage. ok is false when uploads are unbounded.
func (s *Service) UploadLimiterStatus() (status UploadLimiterStatus, ok bool) {
	if s.limiter == nil {
		return UploadLimiterStatus{}, false
	}
	return s.limiter.Status(), true
}

// WaitForUploads blocks until in-flight NormalizeFile calls finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.WaitForDrain(ctx)
}

// Normalize runs the engine over an already decoded workbook.
func (s *Service) Normalize(wb *Workbook) *Result {
	return s.engine.Process(wb)
}

// NormalizeFile decodes the file at path and normalizes every sheet.
//
// A decode failure is returned as a *DecodeError with no result. When the
// file decodes but no sheet yields a record, the result is returned together
// with ErrNoValidData so callers can still report per-sheet details.
func (s *Service) NormalizeFile(ctx context.Context, fileName, path string) (res *UploadResult, err error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in normalize", "file", fileName, "panic", r)
			res, err = nil, fmt.Errorf("normalize %q: panic: %v", fileName, r)
		}
	}()

	start := time.Now()

	wb, err := s.decoder.Decode(ctx, fileName, path)
	if err != nil {
		if !IsDecodeError(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = NewDecodeError(fileName, err)
		}
		return nil, err
	}

	result := s.engine.Process(wb)
	for _, sheet := range result.Sheets {
		if !sheet.HeaderFound {
			slog.Debug("sheet skipped, no header found", "file", fileName, "sheet", sheet.Name)
		}
	}

	res = &UploadResult{
		UploadID: uuid.New().String(),
		FileName: fileName,
		Rows:     result.Rows,
		Sheets:   result.Sheets,
		Rejected: result.Rejected(),
		Summary:  Summarize(result.Rows, s.engine.Registry.OutputOrder()),
		Duration: time.Since(start),
	}

	if s.history != nil {
		if herr := s.history.RecordUpload(ctx, res); herr != nil {
			slog.Warn("failed to record upload history",
				"upload_id", res.UploadID,
				"file", fileName,
				"error", herr,
			)
		}
	}

	if len(res.Rows) == 0 {
		return res, ErrNoValidData
	}
	return res, nil
}
