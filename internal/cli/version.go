package cli

import (
	"github.com/spf13/cobra"

	"github.com/simonhull/eegview"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := eegview.GetVersionInfo()
			cmd.Printf("eegview version %s\n", info.Version)
			cmd.Printf("  commit: %s\n  built:  %s\n  go:     %s\n", info.GitCommit, info.BuildTime, info.GoVersion)
		},
	}
}
