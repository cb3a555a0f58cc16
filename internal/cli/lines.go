package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/money"
)

func (a *app) newLinesCmd() *cobra.Command {
	var account, month string
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "lines",
		Short: "List statement lines of an account for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := money.MonthOf(time.Now())
			if month != "" {
				parsed, err := money.ParseMonth(month)
				if err != nil {
					return err
				}
				m = parsed
			}

			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, _, closeStore, err := a.openService(cfg, "cli")
			if err != nil {
				return err
			}
			defer closeStore()

			lines, err := svc.ListStatementLines(cmd.Context(), account, m)
			if err != nil {
				return err
			}
			PrintStatementLines(a.out, account, m, lines, pendingOnly)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Bank account ID")
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default current month)")
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only show unreconciled lines")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
