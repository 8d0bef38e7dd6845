package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/gkh-data/domscan/internal/config"
)

// ElasticSink replaces an elasticsearch index with the dataset.
type ElasticSink struct {
	client *elasticsearch.Client
	index  string
	logger *slog.Logger
}

// NewElasticSink builds the client and returns a ready sink. The client
// does not dial until the first request, so a wrong address surfaces on
// Write rather than here.
func NewElasticSink(cfg config.ElasticConfig, logger *slog.Logger) (*ElasticSink, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &ElasticSink{
		client: client,
		index:  cfg.Index,
		logger: logger.With("component", "elastic_sink"),
	}, nil
}

func (s *ElasticSink) Name() string { return "elastic" }

func (s *ElasticSink) Write(ctx context.Context, rows []Row) error {
	if err := s.dropIndex(ctx); err != nil {
		return err
	}

	const batchSize = 1000
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.bulkIndex(ctx, rows[start:end]); err != nil {
			return err
		}
	}

	s.logger.Info("dataset written", "index", s.index, "rows", len(rows))
	return nil
}

func (s *ElasticSink) dropIndex(ctx context.Context) error {
	req := esapi.IndicesDeleteRequest{
		Index:             []string{s.index},
		IgnoreUnavailable: esapi.BoolPtr(true),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error deleting index: %s", string(body))
	}
	return nil
}

func (s *ElasticSink) bulkIndex(ctx context.Context, rows []Row) error {
	var buf bytes.Buffer
	for _, row := range rows {
		// Coordinate pairs are unique within a dataset, so they make a
		// stable document id and re-exports overwrite instead of piling up.
		id := fmt.Sprintf("%s,%s",
			strconv.FormatFloat(row.Latitude, 'f', -1, 64),
			strconv.FormatFloat(row.Longitude, 'f', -1, 64))
		fmt.Fprintf(&buf, `{"index":{"_id":%q}}`+"\n", id)
		if err := json.NewEncoder(&buf).Encode(row); err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
	}

	req := esapi.BulkRequest{
		Index: s.index,
		Body:  bytes.NewReader(buf.Bytes()),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error bulk indexing: %s", string(body))
	}
	return nil
}

func (s *ElasticSink) Close() error { return nil }
