package commands

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/transitlab/ridecast/internal/config"
	"github.com/transitlab/ridecast/pkg/models"
)

// loadConfig loads the pipeline configuration from the optional config file
// path, falling back to defaults.
func loadConfig(cfgFile string) (*config.Config, error) {
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(cfgFile)
}

// openOutput opens the output destination; "-" selects stdout.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func newLogger() *logrus.Logger {
	return logrus.StandardLogger()
}

// filterStation keeps only the readings for the named station.
func filterStation(readings []models.RawReading, station string) []models.RawReading {
	out := readings[:0]
	for _, r := range readings {
		if r.StationID == station {
			out = append(out, r)
		}
	}
	return out
}
