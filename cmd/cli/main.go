package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/transitlab/ridecast/cmd/cli/commands"
)

var (
	cfgFile  string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ridecast",
		Short: "Turnstile ridership forecasting pipeline",
		Long: `ridecast ingests turnstile counter readings and produces per-station
ridership forecasts with uncertainty bounds, along with decomposition and
stationarity diagnostics and hold-out error metrics.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(commands.NewForecastCmd(&cfgFile))
	rootCmd.AddCommand(commands.NewAnalyzeCmd(&cfgFile))
	rootCmd.AddCommand(commands.NewEvaluateCmd(&cfgFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
