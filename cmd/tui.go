package cmd

import (
	"clvcast/internal/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return tui.Run(cfg)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
