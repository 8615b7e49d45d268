package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old notification history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneOlderThan <= 0 {
			return fmt.Errorf("--older-than must be greater than zero")
		}
		cutoff := time.Now().UTC().Add(-pruneOlderThan)
		return getApp().Prune(cmd.Context(), cutoff)
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "Delete notifications older than this duration")
}
