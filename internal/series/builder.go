// Package series converts raw irregular turnstile counter readings into
// clean, regularly-sampled per-station count series.
package series

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/transitlab/ridecast/internal/config"
	"github.com/transitlab/ridecast/pkg/errors"
	"github.com/transitlab/ridecast/pkg/models"
)

// Builder aggregates cumulative counter readings into a CleanSeries.
type Builder struct {
	interval      time.Duration
	minIntervals  int
	maxThroughput float64
	logger        *logrus.Logger
}

// NewBuilder creates a series builder from the pipeline configuration.
func NewBuilder(cfg *config.Config, logger *logrus.Logger) *Builder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Builder{
		interval:      cfg.SamplingInterval,
		minIntervals:  cfg.MinIntervalsOrDefault(),
		maxThroughput: cfg.MaxIntervalThroughput,
		logger:        logger,
	}
}

// Build produces a CleanSeries for one station from an unordered set of raw
// readings. Counter resets (negative or implausibly large deltas) are
// discarded rather than propagated as negative ridership, and missing
// intervals are imputed.
func (b *Builder) Build(stationID string, readings []models.RawReading) (*models.CleanSeries, error) {
	if len(readings) == 0 {
		return nil, errors.NewInsufficientDataError(
			fmt.Sprintf("station %s has no readings", stationID))
	}

	byTurnstile := make(map[string][]models.RawReading)
	for _, r := range readings {
		byTurnstile[r.TurnstileID] = append(byTurnstile[r.TurnstileID], r)
	}

	totals := make(map[time.Time]float64)
	observed := make(map[time.Time]bool)
	resets := 0

	for _, unit := range byTurnstile {
		sort.Slice(unit, func(i, j int) bool {
			return unit[i].Timestamp.Before(unit[j].Timestamp)
		})

		for i := 1; i < len(unit); i++ {
			delta := unit[i].CumulativeCount - unit[i-1].CumulativeCount
			bucket := unit[i].Timestamp.Truncate(b.interval)

			if delta < 0 || delta > b.maxThroughput {
				// Counter reset or rollover: the interval still counts as
				// observed, but the delta carries no ridership information.
				resets++
				delta = 0
			}

			totals[bucket] += delta
			observed[bucket] = true
		}
	}

	if len(observed) < b.minIntervals {
		return nil, errors.NewInsufficientDataError(
			fmt.Sprintf("station %s has %d valid intervals, need %d",
				stationID, len(observed), b.minIntervals))
	}

	points := b.fillGaps(totals, observed)

	b.logger.WithFields(logrus.Fields{
		"station":   stationID,
		"intervals": len(points),
		"imputed":   countImputed(points),
		"resets":    resets,
	}).Debug("Built clean series")

	return &models.CleanSeries{
		StationID: stationID,
		Interval:  b.interval,
		Points:    points,
	}, nil
}

// fillGaps lays the observed buckets onto a uniform grid and imputes the
// missing intervals: interior gaps by linear interpolation between the
// nearest observed neighbors, boundary gaps by carrying the nearest
// observed value.
func (b *Builder) fillGaps(totals map[time.Time]float64, observed map[time.Time]bool) []models.SeriesPoint {
	buckets := make([]time.Time, 0, len(observed))
	for t := range observed {
		buckets = append(buckets, t)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	first, last := buckets[0], buckets[len(buckets)-1]
	n := int(last.Sub(first)/b.interval) + 1

	points := make([]models.SeriesPoint, n)
	for i := 0; i < n; i++ {
		ts := first.Add(time.Duration(i) * b.interval)
		points[i] = models.SeriesPoint{Timestamp: ts}
		if observed[ts] {
			points[i].Count = totals[ts]
		} else {
			points[i].Imputed = true
		}
	}

	// Interior gaps: linearly interpolate between known neighbors. The
	// first and last grid points are always observed by construction, so
	// every gap has a known point on both sides.
	prevKnown := 0
	for i := 1; i < n; i++ {
		if points[i].Imputed {
			continue
		}
		if i-prevKnown > 1 {
			span := float64(i - prevKnown)
			for j := prevKnown + 1; j < i; j++ {
				frac := float64(j-prevKnown) / span
				points[j].Count = points[prevKnown].Count + frac*(points[i].Count-points[prevKnown].Count)
			}
		}
		prevKnown = i
	}

	return points
}

func countImputed(points []models.SeriesPoint) int {
	n := 0
	for _, p := range points {
		if p.Imputed {
			n++
		}
	}
	return n
}
