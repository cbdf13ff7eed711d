package cache

import (
	"context"
	"time"
)

// ReportCache holds serialized derived reports. Entries are keyed by the
// history length they were computed from, so an append naturally misses
// the old key and forces a recompute.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
