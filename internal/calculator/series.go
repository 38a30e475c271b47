package calculator

import "math"

// Series is an indicator output aligned to the tail of its source series.
// Values[i] corresponds to source index Offset+i; NaN marks an undefined entry.
type Series struct {
	Offset int
	Values []float64
}

// Undefined is the marker stored for entries without enough lookback.
var Undefined = math.NaN()

func emptySeries(sourceLen int) Series {
	return Series{Offset: sourceLen}
}

// Len returns the number of computed entries.
func (s Series) Len() int { return len(s.Values) }

// Empty reports whether nothing could be computed.
func (s Series) Empty() bool { return len(s.Values) == 0 }

// SourceLen is the length of the series the indicator was derived from.
func (s Series) SourceLen() int { return s.Offset + len(s.Values) }

// At returns the value for source index i, and false when it is out of range or undefined.
func (s Series) At(i int) (float64, bool) {
	j := i - s.Offset
	if j < 0 || j >= len(s.Values) || math.IsNaN(s.Values[j]) {
		return 0, false
	}
	return s.Values[j], true
}

// Last returns the value aligned with the most recent source entry.
func (s Series) Last() (float64, bool) { return s.At(s.SourceLen() - 1) }

// LastTwo returns the values aligned with the previous and current source entries.
func (s Series) LastTwo() (prev, cur float64, ok bool) {
	n := s.SourceLen()
	prev, okPrev := s.At(n - 2)
	cur, okCur := s.At(n - 1)
	return prev, cur, okPrev && okCur
}

// Padded left-pads the values with Undefined so the result has SourceLen entries.
func (s Series) Padded() []float64 {
	out := make([]float64, s.SourceLen())
	for i := 0; i < s.Offset; i++ {
		out[i] = Undefined
	}
	copy(out[s.Offset:], s.Values)
	return out
}

// smooth applies an SMA to the defined values of s, keeping source alignment.
func smooth(s Series, period int) Series {
	if period == 1 {
		return s
	}
	sm := SMA(s.Values, period)
	return Series{Offset: s.Offset + sm.Offset, Values: sm.Values}
}
