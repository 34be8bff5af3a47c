package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	enc "github.com/finvella/finvella/internal/encoding"
	"github.com/finvella/finvella/internal/finance"
)

// Row is one statement line ready to become an expense. The caller assigns
// the expense id.
type Row struct {
	Description string
	Amount      float64
	Category    finance.Category
	Date        string
}

// Service parses bank statement CSV exports into expense rows.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Expected header names, matched case-insensitively. Category is optional.
const (
	colDate        = "date"
	colDescription = "description"
	colAmount      = "amount"
	colCategory    = "category"
)

// Parse reads a statement CSV. The file may be in any encoding a bank
// export shows up in; rows with an unparsable amount or empty description
// are rejected with their line number.
func (s *Service) Parse(r io.Reader) ([]Row, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty statement")
	}

	cols := indexHeader(records[0])

	for _, required := range []string{colDate, colDescription, colAmount} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	var rows []Row

	for i, record := range records[1:] {
		line := i + 2

		description := strings.TrimSpace(field(record, cols[colDescription]))
		if description == "" {
			return nil, fmt.Errorf("line %d: empty description", line)
		}

		amount, err := parseAmount(field(record, cols[colAmount]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		category := finance.CategoryOther

		if idx, ok := cols[colCategory]; ok {
			if c := finance.Category(strings.TrimSpace(field(record, idx))); c.Valid() {
				category = c
			}
		}

		rows = append(rows, Row{
			Description: description,
			Amount:      amount,
			Category:    category,
			Date:        strings.TrimSpace(field(record, cols[colDate])),
		})
	}

	return rows, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))

	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name != "" {
			cols[name] = i
		}
	}

	return cols
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}

	return record[idx]
}

// parseAmount accepts both "1,234.56" and the European "1.234,56", always
// returning a non-negative value: statements record expenses as debits.
func parseAmount(s string) (float64, error) {
	clean := strings.TrimSpace(s)

	if strings.Contains(clean, ",") && strings.LastIndex(clean, ",") > strings.LastIndex(clean, ".") {
		// European style: dot groups thousands, comma is the decimal mark.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}

	amount, _ := d.Abs().Round(2).Float64()

	return amount, nil
}
