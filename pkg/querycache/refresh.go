package querycache

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/caibirdme/qrygw/pkg/seriesstore"
)

// SeriesFetcher pulls the complete series list observed since the given
// start time from the backing store, for C9's periodic label refresh.
type SeriesFetcher func(ctx context.Context, since time.Time) ([]seriesstore.Stream, error)

// Refresher owns the background task that periodically warms the series
// index and its flattened label-values cache entries. It must not hold any
// lock across the backing-store call in Fetch.
type Refresher struct {
	Cache    *Cache
	Store    *seriesstore.Store
	Fetch    SeriesFetcher
	Interval time.Duration
	Logger   log.Logger
}

// Run blocks, ticking at Interval and refreshing on each tick, until ctx is
// canceled. A zero Interval disables the loop entirely (the configured
// refresh_interval is optional).
func (r *Refresher) Run(ctx context.Context) {
	if r.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx, 2*time.Hour)
		}
	}
}

// WarmStartup runs a single refresh against a short 5-minute window, the
// warm-up query the original implementation issues once at process start
// ahead of the first periodic tick.
func (r *Refresher) WarmStartup(ctx context.Context) {
	r.refresh(ctx, 5*time.Minute)
}

func (r *Refresher) refresh(ctx context.Context, window time.Duration) {
	since := time.Now().Add(-window)
	streams, err := r.Fetch(ctx, since)
	if err != nil {
		level.Error(r.Logger).Log("msg", "series refresh failed", "err", err)
		return
	}

	r.Store.Add(streams)

	payload, err := EncodeSeriesPayload(streams)
	if err != nil {
		level.Error(r.Logger).Log("msg", "series payload encode failed", "err", err)
		return
	}
	r.Cache.Set(SeriesIndexKey, payload)

	flattenLabelValues(r.Cache, streams)
}

// flattenLabelValues indexes the same streams as per-label cache entries
// so /label/<k>/values can be served straight from cache.
func flattenLabelValues(cache *Cache, streams []seriesstore.Stream) {
	byLabel := make(map[string]map[string]struct{})
	for _, s := range streams {
		for k, v := range s {
			if byLabel[k] == nil {
				byLabel[k] = make(map[string]struct{})
			}
			byLabel[k][v] = struct{}{}
		}
	}
	for label, values := range byLabel {
		vs := make([]string, 0, len(values))
		for v := range values {
			vs = append(vs, v)
		}
		payload, err := encodeStringList(vs)
		if err != nil {
			continue
		}
		cache.Set(LabelValuesKey(label), payload)
	}
}
