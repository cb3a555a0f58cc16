package statement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "ofx", want: FormatOFX},
		{input: ".OFX", want: FormatOFX},
		{input: "qfx", want: FormatOFX},
		{input: "xlsx", want: FormatXLSX},
		{input: " .xlsx ", want: FormatXLSX},
		{input: "csv", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Dispatch(t *testing.T) {
	result, err := testParser().Parse(strings.NewReader(sgmlStatement), FormatOFX, "acc-1")
	require.NoError(t, err)
	assert.Len(t, result.Lines, 2)

	_, err = testParser().Parse(strings.NewReader(""), Format("csv"), "acc-1")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewParser_GeneratesUUIDs(t *testing.T) {
	result, err := ParseOFX(strings.NewReader(sgmlStatement), "acc-1")
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)
	assert.Len(t, result.Lines[0].ID, 36)
	assert.NotEqual(t, result.Lines[0].ID, result.Lines[1].ID)
}
