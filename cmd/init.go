package cmd

import (
	"github.com/spf13/cobra"

	"github.com/contextdeck/contextdeck/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize contextdeck configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure contextdeck and generates a .contextdeck.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
