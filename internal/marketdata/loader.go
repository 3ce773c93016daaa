package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// LoadPriceCSV reads a price table with the header
// symbol,date,price,perf_price,suspended,limit_up,limit_down.
// perf_price may be empty; the flag columns are optional.
func LoadPriceCSV(path string) ([]domain.PriceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read price header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"symbol", "date", "price"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("price file missing column %q", required)
		}
	}

	var records []domain.PriceRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read price row %d: %w", line, err)
		}
		line++

		price, err := strconv.ParseFloat(row[col["price"]], 64)
		if err != nil {
			return nil, fmt.Errorf("bad price on row %d: %w", line, err)
		}

		rec := domain.PriceRecord{
			Symbol: row[col["symbol"]],
			Date:   row[col["date"]],
			Price:  price,
		}
		if i, ok := col["perf_price"]; ok && i < len(row) && row[i] != "" {
			pp, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("bad perf_price on row %d: %w", line, err)
			}
			rec.PerfPrice = &pp
		}
		rec.Suspended = flagColumn(row, col, "suspended")
		rec.LimitUp = flagColumn(row, col, "limit_up")
		rec.LimitDown = flagColumn(row, col, "limit_down")

		records = append(records, rec)
	}
	return records, nil
}

func flagColumn(row []string, col map[string]int, name string) bool {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return false
	}
	v := row[i]
	return v == "1" || v == "true" || v == "TRUE"
}

// Symbols returns the distinct symbols of a price table, the default
// instrument universe for the signal collaborator.
func Symbols(records []domain.PriceRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		out = append(out, r.Symbol)
	}
	return out
}
