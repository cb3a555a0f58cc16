package statement

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

var fixedNow = time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC)

func testParser() *Parser {
	n := 0
	return NewParser(
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("line-%d", n)
		}),
		WithClock(func() time.Time { return fixedNow }),
	)
}

const sgmlStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102

<OFX>
<BANKMSGSRSV1><STMTTRNRS><STMTRS>
<BANKTRANLIST>
<DTSTART>20251001
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20251015120000[-3:BRT]
<TRNAMT>-45.00
<FITID>2025101501
<MEMO>PAGTO BOLETO  ENERGIA
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20251020
<TRNAMT>1500.00
<FITID>2025102001
<NAME>SALARIO ACME
</BANKTRANLIST>
</STMTRS></STMTTRNRS></BANKMSGSRSV1>
</OFX>
`

func TestParseOFX_SGML(t *testing.T) {
	result, err := testParser().ParseOFX(strings.NewReader(sgmlStatement), "acc-1")
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)
	assert.Empty(t, result.Warnings)

	first := result.Lines[0]
	assert.Equal(t, "line-1", first.ID)
	assert.Equal(t, "acc-1", first.BankAccountID)
	assert.Equal(t, "2025-10-15", money.FormatDate(first.Date))
	assert.True(t, decimal.RequireFromString("-45").Equal(first.Amount))
	assert.Equal(t, "PAGTO BOLETO ENERGIA", first.Description, "whitespace is collapsed")
	assert.Equal(t, "2025101501", first.ExternalRef)
	assert.Equal(t, fixedNow, first.ImportedAt)
	assert.False(t, first.IsReconciled)

	second := result.Lines[1]
	assert.Equal(t, "SALARIO ACME", second.Description, "NAME is used when MEMO is absent")
	assert.True(t, decimal.RequireFromString("1500").Equal(second.Amount))
	assert.Equal(t, "2025-10-20", money.FormatDate(second.Date))
}

func TestParseOFX_XML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<OFX><BANKTRANLIST>
<stmttrn><dtposted>20251002</dtposted><trnamt>-12.30</trnamt><fitid>A1</fitid><memo>Coffee &amp; Co</memo></stmttrn>
</BANKTRANLIST></OFX>`

	result, err := testParser().ParseOFX(strings.NewReader(doc), "acc-1")
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	line := result.Lines[0]
	assert.Equal(t, "2025-10-02", money.FormatDate(line.Date))
	assert.True(t, decimal.RequireFromString("-12.30").Equal(line.Amount))
	assert.Equal(t, "Coffee & Co", line.Description)
	assert.Equal(t, "A1", line.ExternalRef)
}

func TestParseOFX_DegradesBadFields(t *testing.T) {
	doc := `<OFX>
<STMTTRN>
<DTPOSTED>garbage
<TRNAMT>abc
<FITID>X1
</STMTTRN>
</OFX>`

	result, err := testParser().ParseOFX(strings.NewReader(doc), "acc-1")
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	line := result.Lines[0]
	assert.Equal(t, "2025-11-03", money.FormatDate(line.Date), "date falls back to today")
	assert.True(t, line.Amount.IsZero(), "amount falls back to zero")
	assert.Equal(t, NoDescription, line.Description)

	require.Len(t, result.Warnings, 3)
	fields := []string{result.Warnings[0].Field, result.Warnings[1].Field, result.Warnings[2].Field}
	assert.Equal(t, []string{"date", "amount", "memo"}, fields)
	for _, w := range result.Warnings {
		assert.Equal(t, 1, w.Row)
	}
}

func TestParseOFX_MissingDate(t *testing.T) {
	doc := "<STMTTRN><TRNAMT>10.00<MEMO>deposit</STMTTRN>"

	result, err := testParser().ParseOFX(strings.NewReader(doc), "acc-1")
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "date", result.Warnings[0].Field)
	assert.Contains(t, result.Warnings[0].String(), "row 1: date:")
}

func TestParseOFX_NoTransactions(t *testing.T) {
	_, err := testParser().ParseOFX(strings.NewReader("<OFX></OFX>"), "acc-1")
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestParseOFXDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "20251015", want: "2025-10-15"},
		{input: "20251015235959.000[-3:BRT]", want: "2025-10-15"},
		{input: "2025101", wantErr: true},
		{input: "2025-10-15", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseOFXDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, money.FormatDate(got))
		})
	}
}
