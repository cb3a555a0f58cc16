package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/ledger"
)

const octoberOFX = `OFXHEADER:100
DATA:OFXSGML

<OFX><BANKTRANLIST>
<STMTTRN>
<DTPOSTED>20251015
<TRNAMT>-45.00
<FITID>2025101501
<MEMO>PAGTO BOLETO ENERGIA
<STMTTRN>
<DTPOSTED>20251020
<TRNAMT>1500.00
<FITID>2025102001
<NAME>SALARIO ACME
</BANKTRANLIST></OFX>
`

// testEnv writes a config pointing at a fresh database plus a statement file
func testEnv(t *testing.T) (configPath, statementPath string) {
	t.Helper()
	dir := t.TempDir()

	configPath = filepath.Join(dir, "config.yaml")
	cfg := "storage:\n  database_path: " + filepath.Join(dir, "reconcile.db") + "\n" +
		"observability:\n  logging:\n    level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	statementPath = filepath.Join(dir, "october.ofx")
	require.NoError(t, os.WriteFile(statementPath, []byte(octoberOFX), 0o600))
	return configPath, statementPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&app{out: &out, logOut: io.Discard})
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportAndListLines(t *testing.T) {
	configPath, statementPath := testEnv(t)

	out, err := run(t, "import", "--config", configPath, "--account", "acc-1", "--file", statementPath)
	require.NoError(t, err)
	assert.Contains(t, out, "october.ofx (ofx) into acc-1")
	assert.Contains(t, out, "Parsed=2 Inserted=2 Skipped=0 Warnings=0")

	// same FITIDs are skipped the second time
	out, err = run(t, "import", "--config", configPath, "--account", "acc-1", "--file", statementPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted=0 Skipped=2")

	out, err = run(t, "lines", "--config", configPath, "--account", "acc-1", "--month", "2025-10")
	require.NoError(t, err)
	assert.Contains(t, out, "PAGTO BOLETO ENERGIA")
	assert.Contains(t, out, "2025-10-15")
	assert.Contains(t, out, "Lines=2 Unreconciled=2 Net=1455.00")
}

func TestLines_BadMonth(t *testing.T) {
	configPath, _ := testEnv(t)

	_, err := run(t, "lines", "--config", configPath, "--account", "acc-1", "--month", "October")
	assert.Error(t, err)
}

func TestImport_RequiresFlags(t *testing.T) {
	configPath, statementPath := testEnv(t)

	_, err := run(t, "import", "--config", configPath, "--file", statementPath)
	assert.Error(t, err)
}

func TestImport_MissingConfig(t *testing.T) {
	_, statementPath := testEnv(t)

	_, err := run(t, "import", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "--account", "acc-1", "--file", statementPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestCandidates_UnknownLine(t *testing.T) {
	configPath, _ := testEnv(t)

	_, err := run(t, "candidates", "--config", configPath, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestCandidates_RequiresLineID(t *testing.T) {
	configPath, _ := testEnv(t)

	_, err := run(t, "candidates", "--config", configPath)
	assert.Error(t, err)
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		file     string
		fallback string
		want     statement.Format
		wantErr  bool
	}{
		{name: "flag wins", flag: "xlsx", file: "oct.ofx", fallback: "ofx", want: statement.FormatXLSX},
		{name: "from extension", file: "oct.QFX", fallback: "xlsx", want: statement.FormatOFX},
		{name: "xlsx extension", file: "extrato.xlsx", fallback: "ofx", want: statement.FormatXLSX},
		{name: "unknown extension uses default", file: "oct.txt", fallback: "xlsx", want: statement.FormatXLSX},
		{name: "bad flag", flag: "csv", file: "oct.ofx", fallback: "ofx", wantErr: true},
		{name: "bad default", file: "oct", fallback: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveFormat(tt.flag, tt.file, tt.fallback)
			if tt.wantErr {
				assert.ErrorIs(t, err, statement.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintCandidates_Empty(t *testing.T) {
	var out bytes.Buffer
	PrintCandidates(&out, "line-1", nil)
	assert.Contains(t, out.String(), "No candidates scored high enough.")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "histór…", truncate("histórico", 7))
}
