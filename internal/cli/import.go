package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
)

func (a *app) newImportCmd() *cobra.Command {
	var account, file, format string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an OFX or XLSX bank statement",
		Long: `Parse a bank statement export and store its lines for the given
account. Lines whose external reference was already imported are skipped.
The format is taken from --format, then the file extension, then
import.default_format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			f, err := resolveFormat(format, file, cfg.Import.DefaultFormat)
			if err != nil {
				return err
			}

			r, err := os.Open(file)
			if err != nil {
				return err
			}
			defer r.Close()

			svc, _, closeStore, err := a.openService(cfg, "import")
			if err != nil {
				return err
			}
			defer closeStore()

			report, err := svc.ImportStatement(cmd.Context(), account, f, r)
			if err != nil {
				return fmt.Errorf("import %s: %w", filepath.Base(file), err)
			}
			PrintImportReport(a.out, file, report)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Bank account ID the statement belongs to")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Statement file to import")
	cmd.Flags().StringVar(&format, "format", "", "Statement format: ofx or xlsx")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// resolveFormat prefers an explicit flag, then a recognised file extension,
// then the configured default.
func resolveFormat(flag, file, fallback string) (statement.Format, error) {
	if flag != "" {
		return statement.ParseFormat(flag)
	}
	if f, err := statement.ParseFormat(filepath.Ext(file)); err == nil {
		return f, nil
	}
	return statement.ParseFormat(fallback)
}
