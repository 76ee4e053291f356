// Package redis keeps a bounded history of failure reports in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
)

// ErrNoReport is returned when the history is empty.
var ErrNoReport = errors.New("no report stored")

// ReportSummary describes one stored report without its entries.
type ReportSummary struct {
	Key              string    `json:"key"`
	GeneratedAt      time.Time `json:"generated_at"`
	Total            int       `json:"total"`
	NotFound         int       `json:"not_found"`
	Unauthorized     int       `json:"unauthorized"`
	ConnectionErrors int       `json:"connection_errors"`
}

// Store handles report history in Redis
type Store struct {
	client  redis.Cmdable
	history int
}

// NewStore creates a store that keeps at most history reports.
// A history below 1 keeps a single report.
func NewStore(client redis.Cmdable, history int) *Store {
	if history < 1 {
		history = 1
	}
	return &Store{client: client, history: history}
}

// SaveReport stores r, indexes it by generation time and trims old reports.
func (s *Store) SaveReport(ctx context.Context, r *report.FailureReport) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	key := ReportKey(r.GeneratedAt)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.ZAdd(ctx, ReportsKey(), redis.Z{Score: float64(r.GeneratedAt.UnixNano()), Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	if err := s.trim(ctx); err != nil {
		return key, err
	}
	return key, nil
}

// trim drops every report beyond the configured history, oldest first.
func (s *Store) trim(ctx context.Context) error {
	stale, err := s.client.ZRange(ctx, ReportsKey(), 0, int64(-s.history-1)).Result()
	if err != nil {
		return fmt.Errorf("failed to list old reports: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	members := make([]interface{}, len(stale))
	for i, k := range stale {
		members[i] = k
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, stale...)
	pipe.ZRem(ctx, ReportsKey(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to trim reports: %w", err)
	}
	return nil
}

// LatestReport returns the most recently generated report.
func (s *Store) LatestReport(ctx context.Context) (*report.FailureReport, error) {
	keys, err := s.client.ZRevRange(ctx, ReportsKey(), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read report index: %w", err)
	}
	if len(keys) == 0 {
		return nil, ErrNoReport
	}
	return s.GetReport(ctx, keys[0])
}

// GetReport loads the report stored under key.
func (s *Store) GetReport(ctx context.Context, key string) (*report.FailureReport, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNoReport, key)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return decodeReport(data)
}

func decodeReport(data []byte) (*report.FailureReport, error) {
	var r report.FailureReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}

// ListReports returns summaries of the newest reports, newest first.
// Index entries whose payload expired or vanished are skipped.
func (s *Store) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit < 1 {
		return []ReportSummary{}, nil
	}
	keys, err := s.client.ZRevRange(ctx, ReportsKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read report index: %w", err)
	}
	if len(keys) == 0 {
		return []ReportSummary{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	out := make([]ReportSummary, 0, len(keys))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		r, err := decodeReport([]byte(raw))
		if err != nil {
			continue
		}
		out = append(out, Summarize(keys[i], r))
	}
	return out, nil
}

// Summarize builds the summary of r stored under key.
func Summarize(key string, r *report.FailureReport) ReportSummary {
	counts := r.Counts()
	return ReportSummary{
		Key:              key,
		GeneratedAt:      r.GeneratedAt,
		Total:            r.Total(),
		NotFound:         counts[domain.NotFound],
		Unauthorized:     counts[domain.Unauthorized],
		ConnectionErrors: counts[domain.ConnectionError],
	}
}
