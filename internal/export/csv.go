package export

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"strconv"

	"github.com/gkh-data/domscan/internal/types"
)

var csvHeader = []string{
	"latitude", "longitude", "year", "floors",
	"appartments", "parking", "repair", "energy",
}

// CSVSink writes the dataset to one CSV file. Booleans render as True and
// False and absent values as empty cells, matching what the dataset's
// existing consumers parse.
type CSVSink struct {
	path   string
	logger *slog.Logger
}

// NewCSVSink creates a sink writing to path.
func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	return &CSVSink{
		path:   path,
		logger: logger.With("component", "csv_sink"),
	}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(ctx context.Context, rows []Row) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &types.StoreError{Target: s.path, Err: err}
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return &types.StoreError{Target: s.path, Err: err}
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatFloat(row.Latitude, 'f', -1, 64),
			strconv.FormatFloat(row.Longitude, 'f', -1, 64),
			stringCell(row.Year),
			stringCell(row.Floors),
			stringCell(row.Apartments),
			boolCell(row.Parking),
			boolCell(row.Condemned),
			stringCell(row.Energy),
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return &types.StoreError{Target: s.path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return &types.StoreError{Target: s.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &types.StoreError{Target: s.path, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &types.StoreError{Target: s.path, Err: err}
	}

	s.logger.Info("dataset written", "path", s.path, "rows", len(rows))
	return nil
}

func (s *CSVSink) Close() error { return nil }

func stringCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func boolCell(v *bool) string {
	if v == nil {
		return ""
	}
	if *v {
		return "True"
	}
	return "False"
}
