package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/transitlab/ridecast/internal/decompose"
	"github.com/transitlab/ridecast/internal/export"
	"github.com/transitlab/ridecast/internal/ingest"
	"github.com/transitlab/ridecast/internal/series"
	"github.com/transitlab/ridecast/internal/stationarity"
	"github.com/transitlab/ridecast/pkg/models"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	InputFile    string
	Station      string
	OutputFormat string
	OutputFile   string
}

// analysis is the structured report emitted by the analyze command.
type analysis struct {
	StationID       string                      `json:"station_id"`
	Stats           models.SeriesStats          `json:"stats"`
	Imputed         int                         `json:"imputed_intervals"`
	Decomposition   *models.Decomposition       `json:"decomposition"`
	Verdict         *models.StationarityVerdict `json:"verdict"`
	ResidualVerdict *models.StationarityVerdict `json:"residual_verdict,omitempty"`
}

// NewAnalyzeCmd creates the decomposition and stationarity report command.
func NewAnalyzeCmd(cfgFile *string) *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Decompose a station series and test it for stationarity",
		Example: `  # Decomposition and stationarity verdict for one station
  ridecast analyze --input readings.csv --station R001

  # Decomposition components as CSV
  ridecast analyze --input readings.csv --station R001 --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(*cfgFile, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "readings CSV file (required)")
	cmd.Flags().StringVar(&opts.Station, "station", "", "station to analyze (required)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "json", "output format (json, csv)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "output file (- for stdout)")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("station")

	return cmd
}

func runAnalyze(cfgFile string, opts *AnalyzeOptions) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
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

	decomp, err := decompose.NewDecomposer(logger).Decompose(clean, cfg.SeasonalPeriod, cfg.DecompositionMode)
	if err != nil {
		return err
	}

	tester := stationarity.NewTester(cfg, logger)
	verdict, err := tester.Verdict(clean.Values())
	if err != nil {
		return err
	}
	residualVerdict, err := tester.Verdict(decomp.Residual)
	if err != nil {
		residualVerdict = nil
	}

	out, closeOut, err := openOutput(opts.OutputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	switch opts.OutputFormat {
	case "csv":
		return export.WriteDecompositionCSV(out, decomp)
	case "json":
		return export.WriteJSON(out, &analysis{
			StationID:       opts.Station,
			Stats:           clean.Stats(),
			Imputed:         clean.ImputedCount(),
			Decomposition:   decomp,
			Verdict:         verdict,
			ResidualVerdict: residualVerdict,
		})
	default:
		return fmt.Errorf("unsupported output format %q", opts.OutputFormat)
	}
}
