// Package cmd provides the command-line interface of caminos.
package cmd

import (
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "caminos",
	Short: "Cycle-level simulator of virtual-channel interconnection networks.",
	Long: `Caminos simulates routers, links and servers of an interconnection ` +
		`network cycle by cycle and reports latency and throughput. ` +
		`A .env file in the working directory is loaded before any command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}

		log.SetLevel(level)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level (trace, debug, info, warn, error).")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
