package commands

import (
	"github.com/spf13/cobra"

	"github.com/transitlab/ridecast/internal/evaluate"
	"github.com/transitlab/ridecast/internal/export"
	"github.com/transitlab/ridecast/internal/forecast"
	"github.com/transitlab/ridecast/internal/ingest"
	"github.com/transitlab/ridecast/internal/series"
	"github.com/transitlab/ridecast/internal/stationarity"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	InputFile  string
	Station    string
	Window     int
	OutputFile string
}

// NewEvaluateCmd creates the walk-forward backtest command.
func NewEvaluateCmd(cfgFile *string) *cobra.Command {
	opts := &EvaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Backtest the selected model with a walk-forward hold-out",
		Long: `Walk-forward evaluation withholds a trailing window, refits the model on
a history grown by each observed point, and reports error metrics over the
collected one-step forecasts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(*cfgFile, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "readings CSV file (required)")
	cmd.Flags().StringVar(&opts.Station, "station", "", "station to evaluate (required)")
	cmd.Flags().IntVar(&opts.Window, "window", 0, "hold-out window size (defaults to horizon)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "output file (- for stdout)")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("station")

	return cmd
}

func runEvaluate(cfgFile string, opts *EvaluateOptions) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	window := opts.Window
	if window <= 0 {
		window = cfg.Horizon
	}

	readings, err := ingest.ReadFile(opts.InputFile)
	if err != nil {
		return err
	}
	readings = filterStation(readings, opts.Station)

	logger := newLogger()
	clean, err := series.NewBuilder(cfg, logger).Build(opts.Station, readings)
	if err != nil {
		return err
	}

	verdict, err := stationarity.NewTester(cfg, logger).Verdict(clean.Values())
	if err != nil {
		return err
	}

	spec, err := forecast.NewSelector(cfg, logger).Select(clean, verdict)
	if err != nil {
		return err
	}

	report, err := evaluate.NewEvaluator(cfg, logger).WalkForward(clean, spec, window)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(opts.OutputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	return export.WriteJSON(out, report)
}
