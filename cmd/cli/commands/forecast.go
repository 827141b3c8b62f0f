package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/transitlab/ridecast/internal/export"
	"github.com/transitlab/ridecast/internal/ingest"
	"github.com/transitlab/ridecast/internal/pipeline"
)

// ForecastOptions holds flags for the forecast command.
type ForecastOptions struct {
	InputFile    string
	Station      string
	Horizon      int
	OutputFormat string
	OutputFile   string
}

// NewForecastCmd creates the end-to-end forecast command.
func NewForecastCmd(cfgFile *string) *cobra.Command {
	opts := &ForecastOptions{}

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Run the full pipeline and produce per-station forecasts",
		Example: `  # Forecast every station in a readings file
  ridecast forecast --input readings.csv

  # 14-day forecast for one station, written as CSV
  ridecast forecast --input readings.csv --station R170 --format csv -o forecast.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(*cfgFile, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "readings CSV file (required)")
	cmd.Flags().StringVar(&opts.Station, "station", "", "restrict to one station")
	cmd.Flags().IntVar(&opts.Horizon, "horizon", 0, "forecast horizon (overrides config)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "json", "output format (json, csv)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "output file (- for stdout)")

	cmd.MarkFlagRequired("input")

	return cmd
}

func runForecast(cfgFile string, opts *ForecastOptions) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	if opts.Horizon > 0 {
		cfg.Horizon = opts.Horizon
	}

	readings, err := ingest.ReadFile(opts.InputFile)
	if err != nil {
		return err
	}
	if opts.Station != "" {
		readings = filterStation(readings, opts.Station)
	}

	p := pipeline.New(cfg, newLogger())
	results := p.RunAll(readings)
	if len(results) == 0 {
		return fmt.Errorf("no station produced a forecast")
	}

	out, closeOut, err := openOutput(opts.OutputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	switch opts.OutputFormat {
	case "csv":
		for _, res := range results {
			if err := export.WriteForecastCSV(out, res.Forecast); err != nil {
				return err
			}
		}
		return nil
	case "json":
		return export.WriteJSON(out, results)
	default:
		return fmt.Errorf("unsupported output format %q", opts.OutputFormat)
	}
}
