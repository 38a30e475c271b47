package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawBar is a bar as delivered by market data providers: string-typed and usually newest-first.
type RawBar struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume,omitempty"`
}

var rawTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseRawBars reverses a newest-first provider response, parses every field and
// builds a validated PriceSeries.
func ParseRawBars(symbol string, intervalMinutes int, raw []RawBar) (*PriceSeries, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: no bars returned", ErrMalformedInput, symbol)
	}
	bars := make([]Bar, len(raw))
	for i, rb := range raw {
		b, err := rb.parse()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: raw bar %d: %v", ErrMalformedInput, symbol, i, err)
		}
		bars[len(raw)-1-i] = b
	}
	return NewPriceSeries(symbol, intervalMinutes, bars)
}

func (rb RawBar) parse() (Bar, error) {
	t, err := parseRawTime(rb.Datetime)
	if err != nil {
		return Bar{}, err
	}
	b := Bar{Time: t}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", rb.Open, &b.Open},
		{"high", rb.High, &b.High},
		{"low", rb.Low, &b.Low},
		{"close", rb.Close, &b.Close},
		{"volume", rb.Volume, &b.Volume},
	}

	for _, f := range fields {
		s := strings.TrimSpace(f.raw)
		if s == "" && f.name == "volume" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Bar{}, fmt.Errorf("%s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d.InexactFloat64()
	}
	return b, nil
}

func parseRawTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range rawTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}
