package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) newCandidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <statement-line-id>",
		Short: "Rank ledger transactions that could explain a statement line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, _, closeStore, err := a.openService(cfg, "cli")
			if err != nil {
				return err
			}
			defer closeStore()

			candidates, err := svc.Candidates(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			PrintCandidates(a.out, args[0], candidates)
			return nil
		},
	}
}
