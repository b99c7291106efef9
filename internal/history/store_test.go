package history

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ret := m.Called(ctx, sql, args)
	return ret.Get(0).(pgconn.CommandTag), ret.Error(1)
}

func (m *MockDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ret := m.Called(ctx, sql, args)
	rows, _ := ret.Get(0).(pgx.Rows)
	return rows, ret.Error(1)
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ret := m.Called(ctx, sql, args)
	return ret.Get(0).(pgx.Row)
}

// fakeRows serves fixed values through the pgx.Rows interface.
type fakeRows struct {
	data   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.pos-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, v := range row {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func sampleResult() *core.UploadResult {
	sum := 1500.0
	return &core.UploadResult{
		UploadID: "0b7e7c3e-5a7f-4c1e-9a55-0f3f7b6f1a10",
		FileName: "armada.xlsx",
		Rows:     []core.OutputRow{{"B1"}, {"B2"}, {"B3"}},
		Sheets: []core.SheetReport{
			{Name: "Januari", HeaderFound: true, HeaderRow: 2, Accepted: 3, Rejected: 1},
			{Name: "Catatan", HeaderRow: -1},
		},
		Rejected: 1,
		Summary:  core.Summary{Rows: 3, SaldoCount: 3, SaldoSum: &sum},
		Duration: 1250 * time.Millisecond,
	}
}

func TestStore_Migrate(t *testing.T) {
	db := new(MockDB)
	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "CREATE TABLE IF NOT EXISTS import_history")
	}), mock.Anything).Return(pgconn.NewCommandTag("CREATE TABLE"), nil)

	require.NoError(t, New(db).Migrate(context.Background()))
	db.AssertExpectations(t)
}

func TestStore_Migrate_Error(t *testing.T) {
	db := new(MockDB)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("permission denied for schema public"))

	err := New(db).Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate import_history")
}

func TestStore_RecordUpload(t *testing.T) {
	db := new(MockDB)
	db.On("Exec", mock.Anything, insertUpload, mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	ctx := core.ContextWithClientIP(context.Background(), "10.1.2.3")
	res := sampleResult()
	require.NoError(t, New(db).RecordUpload(ctx, res))

	db.AssertNumberOfCalls(t, "Exec", 1)
	args := db.Calls[0].Arguments.Get(2).([]interface{})
	require.Len(t, args, 11)

	id := args[0].(pgtype.UUID)
	assert.True(t, id.Valid)
	assert.Equal(t, res.UploadID, uuid.UUID(id.Bytes).String())
	assert.Equal(t, "armada.xlsx", args[1])
	assert.Equal(t, 3, args[2])
	assert.Equal(t, 1, args[3])
	assert.Equal(t, 2, args[4])
	assert.Equal(t, 1, args[5], "sheets without header count as skipped")
	assert.Equal(t, res.Summary.SaldoSum, args[6])
	assert.Equal(t, int64(1250), args[7])
	assert.Equal(t, pgtype.Text{String: "10.1.2.3", Valid: true}, args[8])
	assert.Equal(t, pgtype.Text{}, args[9], "missing User-Agent is stored as NULL")

	var sheets []core.SheetReport
	require.NoError(t, json.Unmarshal(args[10].([]byte), &sheets))
	assert.Equal(t, res.Sheets, sheets)
}

func TestStore_RecordUpload_InvalidID(t *testing.T) {
	db := new(MockDB)
	res := sampleResult()
	res.UploadID = "not-a-uuid"

	err := New(db).RecordUpload(context.Background(), res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid upload id")
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_RecordUpload_ExecError(t *testing.T) {
	db := new(MockDB)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("dial tcp: connection refused"))

	err := New(db).RecordUpload(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Equal(t, "DB004", core.MapError(err).Code)
}

func TestStore_Recent(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	id := uuid.MustParse("0b7e7c3e-5a7f-4c1e-9a55-0f3f7b6f1a10")
	sheets, err := json.Marshal([]core.SheetReport{{Name: "Sheet1", HeaderFound: true, Accepted: 3}})
	require.NoError(t, err)

	rows := &fakeRows{data: [][]any{
		{
			pgtype.UUID{Bytes: id, Valid: true}, "armada.xlsx", int32(3), int32(1), int32(1), int32(0),
			pgtype.Float8{Float64: 1500, Valid: true}, int64(1250),
			pgtype.Text{String: "10.1.2.3", Valid: true}, pgtype.Text{}, sheets,
			pgtype.Timestamptz{Time: created, Valid: true},
		},
		{
			pgtype.UUID{}, "kosong.csv", int32(0), int32(0), int32(1), int32(1),
			pgtype.Float8{}, int64(40),
			pgtype.Text{}, pgtype.Text{}, []byte(nil),
			pgtype.Timestamptz{Time: created.Add(-time.Hour), Valid: true},
		},
	}}

	db := new(MockDB)
	db.On("Query", mock.Anything, selectRecent, []interface{}{DefaultLimit}).Return(rows, nil)

	entries, err := New(db).Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, rows.closed)

	first := entries[0]
	assert.Equal(t, id.String(), first.ID)
	assert.Equal(t, "armada.xlsx", first.FileName)
	assert.Equal(t, 3, first.RowsAccepted)
	assert.Equal(t, 1, first.RowsRejected)
	require.NotNil(t, first.SaldoTotal)
	assert.Equal(t, 1500.0, *first.SaldoTotal)
	assert.Equal(t, "10.1.2.3", first.ClientIP)
	assert.Equal(t, created, first.CreatedAt)
	require.Len(t, first.Sheets, 1)
	assert.Equal(t, "Sheet1", first.Sheets[0].Name)

	second := entries[1]
	assert.Empty(t, second.ID)
	assert.Nil(t, second.SaldoTotal)
	assert.Nil(t, second.Sheets)
	assert.Equal(t, 1, second.SheetsSkipped)
}

func TestStore_Recent_QueryError(t *testing.T) {
	db := new(MockDB)
	db.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("relation \"import_history\" does not exist"))

	_, err := New(db).Recent(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query import history")
}

func TestStore_Recent_RowsError(t *testing.T) {
	db := new(MockDB)
	db.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return(&fakeRows{err: errors.New("connection reset by peer")}, nil)

	_, err := New(db).Recent(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read import history")
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-1, DefaultLimit},
		{0, DefaultLimit},
		{1, 1},
		{50, 50},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in), "ClampLimit(%d)", tt.in)
	}
}
