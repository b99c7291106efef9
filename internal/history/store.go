// Package history keeps a Postgres log of processed uploads.
//
// Only upload metadata is stored: counts, per-sheet reports and the balance
// total. The normalized rows themselves are returned to the caller and never
// persisted.
package history

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// DefaultLimit and MaxLimit bound Recent.
const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Entry is one row of the import history.
type Entry struct {
	ID            string             `json:"id"`
	FileName      string             `json:"fileName"`
	RowsAccepted  int                `json:"rowsAccepted"`
	RowsRejected  int                `json:"rowsRejected"`
	SheetsTotal   int                `json:"sheetsTotal"`
	SheetsSkipped int                `json:"sheetsSkipped"`
	SaldoTotal    *float64           `json:"saldoTotal,omitempty"`
	DurationMs    int64              `json:"durationMs"`
	ClientIP      string             `json:"clientIp,omitempty"`
	UserAgent     string             `json:"userAgent,omitempty"`
	Sheets        []core.SheetReport `json:"sheets"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// Store reads and writes import_history. It implements core.HistoryRecorder.
type Store struct {
	db DBTX
}

// New returns a Store backed by db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Migrate creates the history table and index if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate import_history: %w", err)
	}
	return nil
}

const insertUpload = `
INSERT INTO import_history (
    id, file_name, rows_accepted, rows_rejected, sheets_total, sheets_skipped,
    saldo_total, duration_ms, client_ip, user_agent, sheets
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// RecordUpload inserts one history row for res. The client address and
// User-Agent are taken from ctx.
func (s *Store) RecordUpload(ctx context.Context, res *core.UploadResult) error {
	id, err := uuid.Parse(res.UploadID)
	if err != nil {
		return fmt.Errorf("record upload: invalid upload id %q: %w", res.UploadID, err)
	}

	sheets, err := json.Marshal(res.Sheets)
	if err != nil {
		return fmt.Errorf("record upload: encode sheets: %w", err)
	}

	skipped := 0
	for _, sheet := range res.Sheets {
		if !sheet.HeaderFound {
			skipped++
		}
	}

	_, err = s.db.Exec(ctx, insertUpload,
		pgtype.UUID{Bytes: id, Valid: true},
		res.FileName,
		len(res.Rows),
		res.Rejected,
		len(res.Sheets),
		skipped,
		res.Summary.SaldoSum,
		res.Duration.Milliseconds(),
		textOrNull(core.ClientIPFromContext(ctx)),
		textOrNull(core.UserAgentFromContext(ctx)),
		sheets,
	)
	if err != nil {
		return fmt.Errorf("record upload %s: %w", res.UploadID, err)
	}
	return nil
}

const selectRecent = `
SELECT id, file_name, rows_accepted, rows_rejected, sheets_total, sheets_skipped,
       saldo_total::float8, duration_ms, client_ip, user_agent, sheets, created_at
FROM import_history
ORDER BY created_at DESC
LIMIT $1`

// Recent returns up to limit entries, newest first. A limit outside
// 1..MaxLimit is replaced by DefaultLimit or MaxLimit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	limit = ClampLimit(limit)

	rows, err := s.db.Query(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query import history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import history: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read import history: %w", err)
	}
	return entries, nil
}

// ClampLimit maps a requested page size into 1..MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func scanEntry(rows pgx.Rows) (*Entry, error) {
	var (
		id            pgtype.UUID
		fileName      string
		rowsAccepted  int32
		rowsRejected  int32
		sheetsTotal   int32
		sheetsSkipped int32
		saldoTotal    pgtype.Float8
		durationMs    int64
		clientIP      pgtype.Text
		userAgent     pgtype.Text
		sheets        []byte
		createdAt     pgtype.Timestamptz
	)

	err := rows.Scan(
		&id, &fileName, &rowsAccepted, &rowsRejected, &sheetsTotal, &sheetsSkipped,
		&saldoTotal, &durationMs, &clientIP, &userAgent, &sheets, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		FileName:      fileName,
		RowsAccepted:  int(rowsAccepted),
		RowsRejected:  int(rowsRejected),
		SheetsTotal:   int(sheetsTotal),
		SheetsSkipped: int(sheetsSkipped),
		DurationMs:    durationMs,
		ClientIP:      clientIP.String,
		UserAgent:     userAgent.String,
		CreatedAt:     createdAt.Time,
	}
	if id.Valid {
		entry.ID = uuid.UUID(id.Bytes).String()
	}
	if saldoTotal.Valid {
		v := saldoTotal.Float64
		entry.SaldoTotal = &v
	}
	if len(sheets) > 0 {
		if err := json.Unmarshal(sheets, &entry.Sheets); err != nil {
			return nil, fmt.Errorf("decode sheets: %w", err)
		}
	}
	return entry, nil
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
