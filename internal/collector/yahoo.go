package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"SignalSentinel/internal/model"
)

const yahooURL = "https://query1.finance.yahoo.com"

var yahooIntervals = map[int]string{
	1: "1m", 2: "2m", 5: "5m", 15: "15m", 30: "30m", 60: "60m", 90: "90m", 1440: "1d", 10080: "1wk",
}

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"EUR/USD": "EURUSD=X",
			"GBP/USD": "GBPUSD=X",
			"USD/JPY": "JPY=X",
			"BTC/USD": "BTC-USD",
			"SPX500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// chartRange picks the shortest Yahoo range that covers count bars, allowing for
// closed sessions.
func chartRange(intervalMinutes, count int) string {
	days := float64(intervalMinutes*count) / (60 * 24) * 2
	switch {
	case days <= 1:
		return "1d"
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	default:
		return "5y"
	}
}

// FetchSeries returns the latest count bars using a named chart range.
func (f *YahooFetcher) FetchSeries(ctx context.Context, symbol string, intervalMinutes, count int) (*model.PriceSeries, error) {
	q := url.Values{}
	q.Set("range", chartRange(intervalMinutes, count))
	ps, err := f.chart(ctx, symbol, intervalMinutes, q)
	if err != nil {
		return nil, err
	}
	if count > 0 && ps.Len() > count {
		ps, _ = ps.From(ps.At(ps.Len()-count).Time, 0)
	}
	return ps, nil
}

// FetchSince returns the first count bars at or after since using explicit period bounds.
func (f *YahooFetcher) FetchSince(ctx context.Context, symbol string, intervalMinutes int, since time.Time, count int) (*model.PriceSeries, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(since.Unix(), 10))
	q.Set("period2", strconv.FormatInt(since.Add(sinceSpan(intervalMinutes, count)).Unix(), 10))
	ps, err := f.chart(ctx, symbol, intervalMinutes, q)
	if err != nil {
		return nil, err
	}
	return window(ps, since, count)
}

// chart calls the chart API with q plus the interval and returns every non-null bar.
func (f *YahooFetcher) chart(ctx context.Context, symbol string, intervalMinutes int, q url.Values) (*model.PriceSeries, error) {
	interval, err := intervalName(yahooIntervals, f.Name(), intervalMinutes)
	if err != nil {
		return nil, err
	}
	q.Set("interval", interval)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no bars for %s", model.ErrInsufficientData, symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, ok1 := at(quote.Open, i)
		h, ok2 := at(quote.High, i)
		l, ok3 := at(quote.Low, i)
		c, ok4 := at(quote.Close, i)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue // null bars for closed sessions
		}
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return model.NewPriceSeries(symbol, intervalMinutes, bars)
}
