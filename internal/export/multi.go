package export

import (
	"context"
	"log/slog"
)

// MultiSink fans the dataset out to several sinks. A failing sink is
// reported and the rest still receive the rows; the first error wins.
type MultiSink struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMultiSink wraps sinks into one.
func NewMultiSink(sinks []Sink, logger *slog.Logger) *MultiSink {
	return &MultiSink{
		sinks:  sinks,
		logger: logger.With("component", "multi_sink"),
	}
}

func (s *MultiSink) Name() string { return "multi" }

func (s *MultiSink) Write(ctx context.Context, rows []Row) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, rows); err != nil {
			s.logger.Error("sink write failed", "sink", sink.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiSink) Close() error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			s.logger.Error("sink close failed", "sink", sink.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
