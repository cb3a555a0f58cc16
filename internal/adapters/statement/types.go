// Package statement turns bank statement exports into ledger statement
// lines. Two formats are read: OFX (SGML or XML flavoured) and the XLSX
// spreadsheets most banks offer as an "export to Excel" download.
//
// Parsing is lenient. A field that cannot be read is replaced with a
// default and reported as a Warning; only a file with no readable rows at
// all is an error.
package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
)

// NoDescription replaces a missing or empty memo.
const NoDescription = "(no description)"

var (
	ErrUnsupportedFormat = errors.New("unsupported statement format")
	ErrNoTransactions    = errors.New("statement contains no transactions")
	ErrHeaderNotFound    = errors.New("statement header row not found")
)

// Format identifies a statement file type
type Format string

const (
	FormatOFX  Format = "ofx"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name or a file extension (".ofx", "QFX").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "ofx", "qfx":
		return FormatOFX, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
}

// Warning describes one field that was replaced with a default.
type Warning struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d: %s: %s", w.Row, w.Field, w.Message)
}

// Result is the outcome of parsing one statement file
type Result struct {
	Lines    []ledger.StatementLine
	Warnings []Warning
}

func (r *Result) warn(row int, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{
		Row:     row,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Parser holds the id generator and clock used for parsed lines.
type Parser struct {
	newID func() string
	now   func() time.Time
}

// Option configures a Parser
type Option func(*Parser)

// WithIDGenerator overrides uuid.NewString
func WithIDGenerator(fn func() string) Option {
	return func(p *Parser) { p.newID = fn }
}

// WithClock overrides time.Now. The clock supplies both ImportedAt and the
// date used for lines whose posting date cannot be read.
func WithClock(fn func() time.Time) Option {
	return func(p *Parser) { p.now = fn }
}

// NewParser creates a Parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
