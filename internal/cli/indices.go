package cli

import (
	"github.com/spf13/cobra"

	"stock-alerts/internal/app"
)

var indicesLimit int

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "Display market index summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Indices(cmd.Context(), app.IndicesOptions{Limit: indicesLimit})
	},
}

func init() {
	indicesCmd.Flags().IntVar(&indicesLimit, "limit", 0, "Number of indices to display (defaults to config)")
}
