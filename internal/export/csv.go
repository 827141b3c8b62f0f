// Package export serializes pipeline artifacts to the tabular and
// structured-text forms consumed by the reporting collaborator.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/transitlab/ridecast/pkg/models"
)

// WriteSeriesCSV writes a clean series as CSV with columns
// station_id,timestamp,count,imputed.
func WriteSeriesCSV(w io.Writer, s *models.CleanSeries) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"station_id", "timestamp", "count", "imputed"}); err != nil {
		return fmt.Errorf("failed to write series header: %w", err)
	}
	for _, p := range s.Points {
		row := []string{
			s.StationID,
			p.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(p.Count, 'f', -1, 64),
			strconv.FormatBool(p.Imputed),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write series row: %w", err)
		}
	}
	return cw.Error()
}

// WriteForecastCSV writes a forecast as CSV with columns
// station_id,timestamp,point,lower,upper.
func WriteForecastCSV(w io.Writer, f *models.Forecast) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"station_id", "timestamp", "point", "lower", "upper"}); err != nil {
		return fmt.Errorf("failed to write forecast header: %w", err)
	}
	for i := range f.Points {
		row := []string{
			f.StationID,
			f.Timestamps[i].Format(time.RFC3339),
			strconv.FormatFloat(f.Points[i], 'f', -1, 64),
			strconv.FormatFloat(f.Lower[i], 'f', -1, 64),
			strconv.FormatFloat(f.Upper[i], 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write forecast row: %w", err)
		}
	}
	return cw.Error()
}

// WriteDecompositionCSV writes a decomposition as CSV with columns
// station_id,index,trend,seasonal,residual.
func WriteDecompositionCSV(w io.Writer, d *models.Decomposition) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"station_id", "index", "trend", "seasonal", "residual"}); err != nil {
		return fmt.Errorf("failed to write decomposition header: %w", err)
	}
	for i := range d.Trend {
		row := []string{
			d.StationID,
			strconv.Itoa(i),
			strconv.FormatFloat(d.Trend[i], 'f', -1, 64),
			strconv.FormatFloat(d.Seasonal[i], 'f', -1, 64),
			strconv.FormatFloat(d.Residual[i], 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write decomposition row: %w", err)
		}
	}
	return cw.Error()
}
