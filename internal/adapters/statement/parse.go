package statement

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

// Parse reads r in the given format
func (p *Parser) Parse(r io.Reader, format Format, bankAccountID string) (*Result, error) {
	switch format {
	case FormatOFX:
		return p.ParseOFX(r, bankAccountID)
	case FormatXLSX:
		return p.ParseXLSX(r, bankAccountID)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

// Parse reads r with a default Parser
func Parse(r io.Reader, format Format, bankAccountID string) (*Result, error) {
	return NewParser().Parse(r, format, bankAccountID)
}

// ParseOFX reads r as OFX with a default Parser
func ParseOFX(r io.Reader, bankAccountID string) (*Result, error) {
	return NewParser().ParseOFX(r, bankAccountID)
}

// ParseXLSX reads r as an XLSX export with a default Parser
func ParseXLSX(r io.Reader, bankAccountID string) (*Result, error) {
	return NewParser().ParseXLSX(r, bankAccountID)
}

// rawLine is a row as found in the file, before degradation
type rawLine struct {
	row    int
	date   string
	amount string
	memo   string
	ref    string
}

// build converts raw into a statement line, recording a warning for each
// field that falls back to its default.
func (p *Parser) build(raw rawLine, bankAccountID string, parseDate func(string) (time.Time, error), result *Result) ledger.StatementLine {
	now := p.now()
	line := ledger.StatementLine{
		ID:            p.newID(),
		BankAccountID: bankAccountID,
		ExternalRef:   strings.TrimSpace(raw.ref),
		ImportedAt:    now,
	}

	date, err := parseDate(raw.date)
	if err != nil {
		result.warn(raw.row, "date", "%v; using %s", err, money.FormatDate(now))
		date = now
	}
	line.Date = money.Day(date)

	amount, err := money.ParseAmount(raw.amount)
	if err != nil {
		result.warn(raw.row, "amount", "%v; using 0.00", err)
		amount = decimal.Zero
	}
	line.Amount = amount

	line.Description = strings.Join(strings.Fields(raw.memo), " ")
	if line.Description == "" {
		result.warn(raw.row, "memo", "missing description")
		line.Description = NoDescription
	}

	return line
}
