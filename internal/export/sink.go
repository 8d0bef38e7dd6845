// Package export projects profile snapshots into the flat buildings
// dataset and writes it to one or more sinks. Every sink receives the
// same rows; writing replaces whatever dataset a previous run left.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gkh-data/domscan/internal/config"
)

// Row is one exported building. Pointer fields render as empty or null in
// the sinks. The appartments spelling is the dataset's published schema
// and is kept for consumers that already depend on it.
type Row struct {
	Latitude   float64 `json:"latitude"    bson:"latitude"`
	Longitude  float64 `json:"longitude"   bson:"longitude"`
	Year       *string `json:"year"        bson:"year"`
	Floors     *string `json:"floors"      bson:"floors"`
	Apartments *string `json:"appartments" bson:"appartments"`
	Parking    *bool   `json:"parking"     bson:"parking"`
	Condemned  *bool   `json:"repair"      bson:"repair"`
	Energy     *string `json:"energy"      bson:"energy"`
}

// Sink is one destination for the projected dataset.
type Sink interface {
	// Write replaces the sink's dataset with rows.
	Write(ctx context.Context, rows []Row) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the sink identifier.
	Name() string
}

// NewSinks builds the configured sinks. The caller owns Close on each.
func NewSinks(ctx context.Context, cfg config.ExportConfig, logger *slog.Logger) ([]Sink, error) {
	sinks := make([]Sink, 0, len(cfg.Sinks))
	for _, name := range cfg.Sinks {
		var (
			sink Sink
			err  error
		)
		switch name {
		case "csv":
			sink = NewCSVSink(cfg.Path, logger)
		case "postgres":
			sink, err = NewPostgresSink(ctx, cfg.Postgres, logger)
		case "mongo":
			sink, err = NewMongoSink(ctx, cfg.Mongo, logger)
		case "elastic":
			sink, err = NewElasticSink(cfg.Elastic, logger)
		default:
			err = fmt.Errorf("unknown sink %q", name)
		}
		if err != nil {
			for _, open := range sinks {
				open.Close()
			}
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}
