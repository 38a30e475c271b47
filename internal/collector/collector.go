package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"

	"github.com/rs/zerolog"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.Bar // returned as-is when set
	End   time.Time   // time of the last generated bar; zero means now
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(_ context.Context, symbol string, intervalMinutes, count int) (*model.PriceSeries, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		bars := m.Bars
		if count > 0 && len(bars) > count {
			bars = bars[len(bars)-count:]
		}
		return model.NewPriceSeries(symbol, intervalMinutes, bars)
	}
	if intervalMinutes <= 0 || count <= 0 {
		return nil, fmt.Errorf("%w: interval %d, count %d", model.ErrMalformedInput, intervalMinutes, count)
	}
	step := time.Duration(intervalMinutes) * time.Minute
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(step)
	}
	return model.NewPriceSeries(symbol, intervalMinutes, generateMockBars(m.Price, count, end, step))
}

// FetchSince serves the bars opening at or after since. Generated bars start at
// since truncated to the interval and never pass End.
func (m *MockFetcher) FetchSince(_ context.Context, symbol string, intervalMinutes int, since time.Time, count int) (*model.PriceSeries, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		ps, err := model.NewPriceSeries(symbol, intervalMinutes, m.Bars)
		if err != nil {
			return nil, err
		}
		return window(ps, since, count)
	}
	if intervalMinutes <= 0 || count <= 0 {
		return nil, fmt.Errorf("%w: interval %d, count %d", model.ErrMalformedInput, intervalMinutes, count)
	}
	step := time.Duration(intervalMinutes) * time.Minute
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(step)
	}
	start := since.UTC().Truncate(step)
	if start.Before(since) {
		start = start.Add(step)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s: no bars since %s", model.ErrInsufficientData, symbol, since.Format(time.RFC3339))
	}
	n := min(count, int(end.Sub(start)/step)+1)
	return model.NewPriceSeries(symbol, intervalMinutes, generateMockBars(m.Price, n, start.Add(time.Duration(n-1)*step), step))
}

// generateMockBars draws a gentle sine wave around basePrice so every strategy
// family sees both directions.
func generateMockBars(basePrice float64, count int, end time.Time, step time.Duration) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/6))
		bars[i] = model.Bar{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector wraps a Fetcher with logging and fetch error accounting.
type Collector struct {
	Fetcher Fetcher
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, m *metrics.Metrics, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		metrics: m,
		log:     log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// FetchSeries fetches the latest count bars.
func (c *Collector) FetchSeries(ctx context.Context, symbol string, intervalMinutes, count int) (*model.PriceSeries, error) {
	start := time.Now()
	ps, err := c.Fetcher.FetchSeries(ctx, symbol, intervalMinutes, count)
	return c.observe(ps, err, symbol, intervalMinutes, start)
}

// FetchSince fetches up to count bars opening at or after since.
func (c *Collector) FetchSince(ctx context.Context, symbol string, intervalMinutes int, since time.Time, count int) (*model.PriceSeries, error) {
	start := time.Now()
	ps, err := c.Fetcher.FetchSince(ctx, symbol, intervalMinutes, since, count)
	return c.observe(ps, err, symbol, intervalMinutes, start)
}

func (c *Collector) observe(ps *model.PriceSeries, err error, symbol string, intervalMinutes int, start time.Time) (*model.PriceSeries, error) {
	if err != nil {
		c.metrics.FetchFailed(c.Fetcher.Name())
		c.log.Warn().Err(err).Str("symbol", symbol).Int("interval", intervalMinutes).Msg("fetch failed")
		return nil, fmt.Errorf("fetch %s %dm: %w", symbol, intervalMinutes, err)
	}
	c.log.Debug().
		Str("symbol", symbol).
		Int("bars", ps.Len()).
		Time("first", ps.At(0).Time).
		Time("last", ps.Last().Time).
		Dur("took", time.Since(start)).
		Msg("series fetched")
	return ps, nil
}
