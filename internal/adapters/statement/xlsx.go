package statement

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// headerScanRows bounds how far down the sheet the header row may be. Bank
// exports usually put the account name and period above it.
const headerScanRows = 15

// Header aliases, compared after lower-casing and trimming
var (
	dateHeaders        = []string{"date", "data", "posted", "posted date", "transaction date", "data lançamento", "data do lançamento"}
	descriptionHeaders = []string{"description", "memo", "name", "histórico", "historico", "descrição", "descricao", "lançamento"}
	amountHeaders      = []string{"amount", "valor", "value", "valor (r$)", "amount (usd)"}
	referenceHeaders   = []string{"reference", "ref", "id", "fitid", "documento", "nº documento", "doc"}
)

// xlsxDateLayouts are tried in order. Day-first is preferred for slashes,
// matching the Brazilian exports this reader was written against.
var xlsxDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02/01/06",
	"01-02-06",
	"20060102",
}

type columns struct {
	date, description, amount, reference int
}

// ParseXLSX reads the first sheet of a spreadsheet export. The header row
// must name at least a date and an amount column.
func (p *Parser) ParseXLSX(r io.Reader, bankAccountID string) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoTransactions
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}

	headerRow, cols, ok := findHeader(rows)
	if !ok {
		return nil, fmt.Errorf("sheet %q: %w", sheetName, ErrHeaderNotFound)
	}

	result := &Result{}
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		raw := rawLine{
			row:    i + 1,
			date:   cell(row, cols.date),
			amount: cell(row, cols.amount),
			memo:   cell(row, cols.description),
			ref:    cell(row, cols.reference),
		}
		result.Lines = append(result.Lines, p.build(raw, bankAccountID, parseXLSXDate, result))
	}

	if len(result.Lines) == 0 {
		return nil, ErrNoTransactions
	}
	return result, nil
}

// findHeader returns the index of the first row naming both a date and an
// amount column.
func findHeader(rows [][]string) (int, columns, bool) {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		cols := columns{date: -1, description: -1, amount: -1, reference: -1}
		for j, name := range rows[i] {
			name = strings.ToLower(strings.TrimSpace(name))
			switch {
			case cols.date < 0 && slices.Contains(dateHeaders, name):
				cols.date = j
			case cols.description < 0 && slices.Contains(descriptionHeaders, name):
				cols.description = j
			case cols.amount < 0 && slices.Contains(amountHeaders, name):
				cols.amount = j
			case cols.reference < 0 && slices.Contains(referenceHeaders, name):
				cols.reference = j
			}
		}
		if cols.date >= 0 && cols.amount >= 0 {
			return i, cols, true
		}
	}
	return 0, columns{}, false
}

// parseXLSXDate accepts formatted dates and raw Excel serials.
func parseXLSXDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range xlsxDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
