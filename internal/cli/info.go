package cli

import (
	"github.com/spf13/cobra"
)

func newInfoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Load files and print a summary of each",
		Long: `Load one or more recordings concurrently and print a summary of each,
without opening the viewer. Any failure aborts the whole command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := app.loader().LoadMany(cmd.Context(), args...)
			if err != nil {
				return err
			}
			for i, rec := range recs {
				if i > 0 {
					cmd.Println()
				}
				cmd.Printf("%s:\n", args[i])
				printSummary(cmd.OutOrStdout(), rec)
			}
			return nil
		},
	}
}
