// Package ingest reads raw turnstile readings from the CSV form produced
// by the ingestion collaborator. The core pipeline itself performs no I/O.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/transitlab/ridecast/pkg/errors"
	"github.com/transitlab/ridecast/pkg/models"
)

// Accepted timestamp layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ReadFile reads raw readings from a CSV file.
func ReadFile(path string) ([]models.RawReading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeInvalidInput,
			"failed to open readings file")
	}
	defer f.Close()
	return Read(f)
}

// Read parses raw readings from CSV with columns
// station_id,turnstile_id,timestamp,cumulative_count. A header row is
// detected and skipped.
func Read(r io.Reader) ([]models.RawReading, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var readings []models.RawReading
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeInvalidFormat,
				"failed to parse readings CSV")
		}
		line++

		if line == 1 && strings.EqualFold(record[0], "station_id") {
			continue
		}

		ts, err := parseTimestamp(record[2])
		if err != nil {
			return nil, errors.NewValidationError(errors.CodeInvalidFormat,
				fmt.Sprintf("line %d: invalid timestamp %q", line, record[2]))
		}
		count, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, errors.NewValidationError(errors.CodeInvalidFormat,
				fmt.Sprintf("line %d: invalid cumulative count %q", line, record[3]))
		}

		readings = append(readings, models.RawReading{
			StationID:       record[0],
			TurnstileID:     record[1],
			Timestamp:       ts,
			CumulativeCount: count,
		})
	}

	if len(readings) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput, "readings CSV contains no rows")
	}
	return readings, nil
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
