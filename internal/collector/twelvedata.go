package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"SignalSentinel/internal/model"
)

const twelveDataURL = "https://api.twelvedata.com"

var twelveDataIntervals = map[int]string{
	1: "1min", 5: "5min", 15: "15min", 30: "30min", 45: "45min",
	60: "1h", 120: "2h", 240: "4h", 1440: "1day", 10080: "1week",
}

// TwelveDataFetcher implements Fetcher using the Twelve Data time_series API.
type TwelveDataFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewTwelveDataFetcher creates a new fetcher with optional proxy support.
func NewTwelveDataFetcher(baseURL, apiKey, proxyURL string) *TwelveDataFetcher {
	if baseURL == "" {
		baseURL = twelveDataURL
	}
	return &TwelveDataFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *TwelveDataFetcher) Name() string { return "twelvedata" }

// timeSeries is the JSON shape of a time_series response. Values arrive newest
// first with every number encoded as a string.
type timeSeries struct {
	Status  string         `json:"status"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Values  []model.RawBar `json:"values"`
}

// FetchSeries returns the latest count bars.
func (f *TwelveDataFetcher) FetchSeries(ctx context.Context, symbol string, intervalMinutes, count int) (*model.PriceSeries, error) {
	q := url.Values{}
	q.Set("outputsize", strconv.Itoa(count))
	values, err := f.timeSeries(ctx, symbol, intervalMinutes, q)
	if err != nil {
		return nil, err
	}
	if len(values) > count && count > 0 {
		values = values[:count]
	}
	return model.ParseRawBars(symbol, intervalMinutes, values)
}

// FetchSince asks for the bars between since and a bounded end date in ascending
// order, so the earliest bars survive the provider's output cap.
func (f *TwelveDataFetcher) FetchSince(ctx context.Context, symbol string, intervalMinutes int, since time.Time, count int) (*model.PriceSeries, error) {
	const layout = "2006-01-02 15:04:05"
	q := url.Values{}
	q.Set("start_date", since.UTC().Format(layout))
	q.Set("end_date", since.UTC().Add(sinceSpan(intervalMinutes, count)).Format(layout))
	q.Set("order", "ASC")
	values, err := f.timeSeries(ctx, symbol, intervalMinutes, q)
	if err != nil {
		return nil, err
	}
	slices.Reverse(values)
	ps, err := model.ParseRawBars(symbol, intervalMinutes, values)
	if err != nil {
		return nil, err
	}
	return window(ps, since, count)
}

// timeSeries calls /time_series with the common parameters added to q and returns
// the raw values in the order the API sent them.
func (f *TwelveDataFetcher) timeSeries(ctx context.Context, symbol string, intervalMinutes int, q url.Values) ([]model.RawBar, error) {
	interval, err := intervalName(twelveDataIntervals, f.Name(), intervalMinutes)
	if err != nil {
		return nil, err
	}

	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("timezone", "UTC")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/time_series?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "apikey "+f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twelvedata fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("twelvedata: status %d, body: %s", resp.StatusCode, string(body))
	}

	var ts timeSeries
	if err := json.NewDecoder(resp.Body).Decode(&ts); err != nil {
		return nil, fmt.Errorf("twelvedata decode: %w", err)
	}
	if ts.Status == "error" {
		return nil, fmt.Errorf("twelvedata api error %d: %s", ts.Code, ts.Message)
	}
	return ts.Values, nil
}
