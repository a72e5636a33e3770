package cmd

import (
	"fmt"

	"github.com/nakacristo/caminos-lib-sub002/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [file]",
	Short: "Print the default configuration, or check and print a file.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()

		if len(args) == 1 {
			var err error

			cfg, err = config.Load(args[0])
			if err != nil {
				return err
			}
		}

		data, err := cfg.Marshal()
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(data))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
