package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/lib/pq"

	"github.com/gkh-data/domscan/internal/config"
)

// PostgresSink replaces a postgres table with the dataset.
type PostgresSink struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// NewPostgresSink opens the database, runs the schema migration and
// returns a ready sink.
func NewPostgresSink(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*PostgresSink, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &PostgresSink{
		db:     db,
		table:  cfg.Table,
		logger: logger.With("component", "postgres_sink"),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresSink) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          SERIAL PRIMARY KEY,
			latitude    DOUBLE PRECISION NOT NULL,
			longitude   DOUBLE PRECISION NOT NULL,
			year        TEXT,
			floors      TEXT,
			appartments TEXT,
			parking     BOOLEAN,
			repair      BOOLEAN,
			energy      TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_%s_year   ON %s(year);
		CREATE INDEX IF NOT EXISTS idx_%s_floors ON %s(floors);
	`, s.table, s.table, s.table, s.table, s.table))
	return err
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, rows []Row) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 500
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.insertBatch(ctx, rows[start:end]); err != nil {
			return err
		}
	}

	s.logger.Info("dataset written", "table", s.table, "rows", len(rows))
	return nil
}

func (s *PostgresSink) insertBatch(ctx context.Context, batch []Row) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*8)

	for i, row := range batch {
		base := i * 8
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		valueArgs = append(valueArgs,
			row.Latitude, row.Longitude, row.Year, row.Floors,
			row.Apartments, row.Parking, row.Condemned, row.Energy)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (latitude, longitude, year, floors, appartments, parking, repair, energy)
		VALUES %s
	`, s.table, strings.Join(valueStrings, ","))

	if _, err := s.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
