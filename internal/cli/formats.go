package cli

import (
	"github.com/spf13/cobra"
)

func newFormatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported file extensions and their loaders",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, e := range app.Registry.Entries() {
				if e.Fallback != nil {
					cmd.Printf("%-6s %s (fallback: %s)\n", e.Ext, e.Primary.Name(), e.Fallback.Name())
					continue
				}
				cmd.Printf("%-6s %s\n", e.Ext, e.Primary.Name())
			}
		},
	}
}
