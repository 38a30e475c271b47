package model

import (
	"fmt"
	"math"
	"time"
)

// Bar represents a single OHLC candlestick.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (b Bar) validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value %v", v)
		}
	}
	if b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("high %.6f below open/close", b.High)
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("low %.6f above open/close", b.Low)
	}
	return nil
}

// PriceSeries is an immutable, oldest-first snapshot of bars for one symbol and interval.
type PriceSeries struct {
	symbol          string
	intervalMinutes int
	bars            []Bar
}

// NewPriceSeries validates bars and copies them into a new series.
// Bars must be non-empty, oldest-first with strictly increasing timestamps.
func NewPriceSeries(symbol string, intervalMinutes int, bars []Bar) (*PriceSeries, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: empty price series", ErrMalformedInput, symbol)
	}
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("%w: %s: interval must be positive, got %d", ErrMalformedInput, symbol, intervalMinutes)
	}
	for i, b := range bars {
		if err := b.validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: bar %d: %v", ErrMalformedInput, symbol, i, err)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("%w: %s: bar %d at %s is not after %s",
				ErrMalformedInput, symbol, i, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	cp := make([]Bar, len(bars))
	copy(cp, bars)
	return &PriceSeries{symbol: symbol, intervalMinutes: intervalMinutes, bars: cp}, nil
}

func (p *PriceSeries) Symbol() string       { return p.symbol }
func (p *PriceSeries) IntervalMinutes() int { return p.intervalMinutes }
func (p *PriceSeries) Len() int             { return len(p.bars) }

// At returns the bar at index i (0 is the oldest).
func (p *PriceSeries) At(i int) Bar { return p.bars[i] }

// Last returns the most recent bar.
func (p *PriceSeries) Last() Bar { return p.bars[len(p.bars)-1] }

// Bars returns a copy of the underlying bars.
func (p *PriceSeries) Bars() []Bar {
	cp := make([]Bar, len(p.bars))
	copy(cp, p.bars)
	return cp
}

func (p *PriceSeries) Opens() []float64  { return p.project(func(b Bar) float64 { return b.Open }) }
func (p *PriceSeries) Highs() []float64  { return p.project(func(b Bar) float64 { return b.High }) }
func (p *PriceSeries) Lows() []float64   { return p.project(func(b Bar) float64 { return b.Low }) }
func (p *PriceSeries) Closes() []float64 { return p.project(func(b Bar) float64 { return b.Close }) }

// After returns the first bar strictly after t.
func (p *PriceSeries) After(t time.Time) (Bar, bool) {
	for _, b := range p.bars {
		if b.Time.After(t) {
			return b, true
		}
	}
	return Bar{}, false
}

// From returns at most count bars opening at or after since. count <= 0 keeps
// every such bar. It reports false when none qualify.
func (p *PriceSeries) From(since time.Time, count int) (*PriceSeries, bool) {
	i := 0
	for i < len(p.bars) && p.bars[i].Time.Before(since) {
		i++
	}
	if i == len(p.bars) {
		return nil, false
	}
	end := len(p.bars)
	if count > 0 && i+count < end {
		end = i + count
	}
	return &PriceSeries{symbol: p.symbol, intervalMinutes: p.intervalMinutes, bars: p.bars[i:end]}, true
}

// Closed drops trailing bars that are still forming at now, i.e. whose interval
// has not ended yet. It reports false when no closed bar remains.
func (p *PriceSeries) Closed(now time.Time) (*PriceSeries, bool) {
	step := time.Duration(p.intervalMinutes) * time.Minute
	n := len(p.bars)
	for n > 0 && p.bars[n-1].Time.Add(step).After(now) {
		n--
	}
	if n == 0 {
		return nil, false
	}
	if n == len(p.bars) {
		return p, true
	}
	return &PriceSeries{symbol: p.symbol, intervalMinutes: p.intervalMinutes, bars: p.bars[:n]}, true
}

func (p *PriceSeries) project(f func(Bar) float64) []float64 {
	out := make([]float64, len(p.bars))
	for i, b := range p.bars {
		out[i] = f(b)
	}
	return out
}
