// Command readings-generator produces synthetic turnstile counter readings
// in the CSV form the pipeline ingests. The generated counters follow a
// configurable daily ridership signal (level, trend, weekly cycle, noise)
// and can inject counter resets and missing days to exercise the series
// builder's cleaning behavior.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type options struct {
	stations   int
	turnstiles int
	days       int
	level      float64
	trend      float64
	amplitude  float64
	period     int
	noise      float64
	resetProb  float64
	gapProb    float64
	seed       int64
	start      string
	output     string
	verbose    bool
}

func main() {
	var opts options
	flag.IntVar(&opts.stations, "stations", 3, "Number of stations")
	flag.IntVar(&opts.turnstiles, "turnstiles", 4, "Turnstiles per station")
	flag.IntVar(&opts.days, "days", 730, "Days of history")
	flag.Float64Var(&opts.level, "level", 800, "Base daily ridership per turnstile")
	flag.Float64Var(&opts.trend, "trend", 0.5, "Daily ridership trend per turnstile")
	flag.Float64Var(&opts.amplitude, "amplitude", 200, "Seasonal swing per turnstile")
	flag.IntVar(&opts.period, "period", 7, "Seasonal period in days")
	flag.Float64Var(&opts.noise, "noise", 25, "Gaussian noise standard deviation")
	flag.Float64Var(&opts.resetProb, "reset-prob", 0.002, "Per-day probability of a counter reset")
	flag.Float64Var(&opts.gapProb, "gap-prob", 0.01, "Per-day probability of a missing reading")
	flag.Int64Var(&opts.seed, "seed", 1, "Random seed")
	flag.StringVar(&opts.start, "start", "2023-01-02", "First reading date (YYYY-MM-DD)")
	flag.StringVar(&opts.output, "output", "readings.csv", "Output file")
	flag.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	flag.Parse()

	logger := logrus.New()
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	start, err := time.Parse("2006-01-02", opts.start)
	if err != nil {
		logger.WithError(err).Fatal("Invalid start date")
	}

	f, err := os.Create(opts.output)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create output file")
	}
	defer f.Close()

	rows, err := generate(f, opts, start)
	if err != nil {
		logger.WithError(err).Fatal("Failed to generate readings")
	}

	logger.WithFields(logrus.Fields{
		"stations":   opts.stations,
		"turnstiles": opts.turnstiles,
		"days":       opts.days,
		"rows":       rows,
		"output":     opts.output,
	}).Info("Generated synthetic readings")
}

func generate(f *os.File, opts options, start time.Time) (int, error) {
	rng := rand.New(rand.NewSource(opts.seed))
	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"station_id", "turnstile_id", "timestamp", "cumulative_count"}); err != nil {
		return 0, err
	}

	rows := 0
	for s := 0; s < opts.stations; s++ {
		stationID := fmt.Sprintf("STN-%03d", s+1)
		// Stations differ in scale so the per-station forecasts diverge.
		scale := 1 + 0.3*float64(s)

		for u := 0; u < opts.turnstiles; u++ {
			turnstileID := fmt.Sprintf("%s-T%d", stationID, u+1)
			cumulative := float64(rng.Intn(100000))

			for day := 0; day <= opts.days; day++ {
				if day > 0 {
					cumulative += dailyCount(opts, rng, scale, day)
				}
				if rng.Float64() < opts.resetProb {
					cumulative = float64(rng.Intn(1000))
				}
				if day > 0 && rng.Float64() < opts.gapProb {
					continue
				}

				row := []string{
					stationID,
					turnstileID,
					start.AddDate(0, 0, day).Format(time.RFC3339),
					strconv.FormatFloat(math.Round(cumulative), 'f', -1, 64),
				}
				if err := w.Write(row); err != nil {
					return rows, err
				}
				rows++
			}
		}
	}
	return rows, w.Error()
}

// dailyCount is the per-turnstile ridership signal for one day: level plus
// trend plus a seasonal cycle plus Gaussian noise, floored at zero.
func dailyCount(opts options, rng *rand.Rand, scale float64, day int) float64 {
	phase := 2 * math.Pi * float64(day%opts.period) / float64(opts.period)
	v := scale * (opts.level + opts.trend*float64(day) + opts.amplitude*math.Sin(phase))
	v += rng.NormFloat64() * opts.noise
	if v < 0 {
		v = 0
	}
	return v
}
