package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"SignalSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchSeries returns up to count of the most recent bars, oldest first.
	FetchSeries(ctx context.Context, symbol string, intervalMinutes, count int) (*model.PriceSeries, error)
	// FetchSince returns up to count bars opening at or after since, oldest first.
	FetchSince(ctx context.Context, symbol string, intervalMinutes int, since time.Time, count int) (*model.PriceSeries, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// sinceSpan bounds a since-anchored request: count bars plus room for weekends and
// session breaks.
func sinceSpan(intervalMinutes, count int) time.Duration {
	return time.Duration(intervalMinutes*count)*time.Minute*2 + 4*24*time.Hour
}

// window trims ps to the bars a FetchSince caller asked for.
func window(ps *model.PriceSeries, since time.Time, count int) (*model.PriceSeries, error) {
	w, ok := ps.From(since, count)
	if !ok {
		return nil, fmt.Errorf("%w: %s: no bars since %s", model.ErrInsufficientData, ps.Symbol(), since.Format(time.RFC3339))
	}
	return w, nil
}

func intervalName(names map[int]string, provider string, minutes int) (string, error) {
	name, ok := names[minutes]
	if !ok {
		return "", fmt.Errorf("%w: %s has no %d minute interval", model.ErrMalformedInput, provider, minutes)
	}
	return name, nil
}
