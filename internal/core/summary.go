package core

import (
	"strconv"

	"github.com/montanaflynn/stats"
)

// Summary aggregates the numeric balances of an upload.
// Pointer fields are nil when no row carried a numeric saldo.
type Summary struct {
	Rows        int      `json:"rows"`
	SaldoCount  int      `json:"saldoCount"`
	SaldoSum    *float64 `json:"saldoSum,omitempty"`
	SaldoMean   *float64 `json:"saldoMean,omitempty"`
	SaldoMedian *float64 `json:"saldoMedian,omitempty"`
	SaldoMin    *float64 `json:"saldoMin,omitempty"`
	SaldoMax    *float64 `json:"saldoMax,omitempty"`
}

// Summarize computes a Summary over rows laid out in order.
// Saldo values that passed through as text are ignored.
func Summarize(rows []OutputRow, order []string) Summary {
	sum := Summary{Rows: len(rows)}

	col := -1
	for i, key := range order {
		if key == FieldSaldo {
			col = i
		}
	}
	if col < 0 {
		return sum
	}

	var data stats.Float64Data
	for _, row := range rows {
		if col >= len(row) || row[col] == "" {
			continue
		}
		if v, err := strconv.ParseFloat(row[col], 64); err == nil {
			data = append(data, v)
		}
	}
	sum.SaldoCount = len(data)
	if len(data) == 0 {
		return sum
	}

	sum.SaldoSum = aggregate(data.Sum)
	sum.SaldoMean = aggregate(data.Mean)
	sum.SaldoMedian = aggregate(data.Median)
	sum.SaldoMin = aggregate(data.Min)
	sum.SaldoMax = aggregate(data.Max)
	return sum
}

func aggregate(fn func() (float64, error)) *float64 {
	v, err := fn()
	if err != nil {
		return nil
	}
	return &v
}
