package strategy

import (
	"errors"
	"fmt"

	"SignalSentinel/internal/model"

	"gopkg.in/yaml.v3"
)

// Family names a rule family.
type Family string

const (
	FamilyEMAStochastic Family = "ema_stochastic"
	FamilyRSIBollinger  Family = "rsi_bollinger"
	FamilyMomentum      Family = "momentum"
	FamilyMACrossover   Family = "ma_crossover"
)

// Config is one of the strategy parameter sets defined in this package.
// The set is closed: only EMAStochastic, RSIBollinger, Momentum and MACrossover implement it.
type Config interface {
	Family() Family
	// Lookback is the minimum number of bars the strategy needs, including the previous bar.
	Lookback() int
	Validate() error

	evaluate(ps *model.PriceSeries) (conditions, error)
}

// EMAStochastic fires when price leaves an EMA high/low channel on the trend side
// while the stochastic oscillator confirms oversold/overbought.
type EMAStochastic struct {
	ChannelPeriod int     `yaml:"channel_period"`
	TrendPeriod   int     `yaml:"trend_period"`
	StochPeriod   int     `yaml:"stoch_period"`
	SmoothK       int     `yaml:"smooth_k"`
	SmoothD       int     `yaml:"smooth_d"`
	Oversold      float64 `yaml:"oversold"`
	Overbought    float64 `yaml:"overbought"`
}

func DefaultEMAStochastic() EMAStochastic {
	return EMAStochastic{ChannelPeriod: 5, TrendPeriod: 21, StochPeriod: 14, SmoothK: 1, SmoothD: 3, Oversold: 20, Overbought: 80}
}

func (c EMAStochastic) Family() Family { return FamilyEMAStochastic }

func (c EMAStochastic) Lookback() int {
	return max(c.ChannelPeriod, c.TrendPeriod, c.StochPeriod+c.SmoothK+c.SmoothD-2) + 1
}

func (c EMAStochastic) Validate() error {
	if err := positive(map[string]int{
		"channel_period": c.ChannelPeriod, "trend_period": c.TrendPeriod,
		"stoch_period": c.StochPeriod, "smooth_k": c.SmoothK, "smooth_d": c.SmoothD,
	}); err != nil {
		return err
	}
	return thresholds(c.Oversold, c.Overbought)
}

// RSIBollinger fires on a simultaneous RSI threshold cross and Bollinger band re-entry.
type RSIBollinger struct {
	RSIPeriod  int     `yaml:"rsi_period"`
	Oversold   float64 `yaml:"oversold"`
	Overbought float64 `yaml:"overbought"`
	BandPeriod int     `yaml:"band_period"`
	Multiplier float64 `yaml:"multiplier"`
}

func DefaultRSIBollinger() RSIBollinger {
	return RSIBollinger{RSIPeriod: 14, Oversold: 30, Overbought: 70, BandPeriod: 20, Multiplier: 2}
}

func (c RSIBollinger) Family() Family { return FamilyRSIBollinger }

// Lookback covers the RSI warm-up placeholders plus one real previous value.
func (c RSIBollinger) Lookback() int { return max(c.RSIPeriod+3, c.BandPeriod+1) }

func (c RSIBollinger) Validate() error {
	if err := positive(map[string]int{"rsi_period": c.RSIPeriod, "band_period": c.BandPeriod}); err != nil {
		return err
	}
	if c.Multiplier <= 0 {
		return fmt.Errorf("multiplier must be positive, got %v", c.Multiplier)
	}
	return thresholds(c.Oversold, c.Overbought)
}

// Momentum fires when the last close moved more than ThresholdPct away from the
// close ReferenceBars earlier.
type Momentum struct {
	ThresholdPct  float64 `yaml:"threshold_pct"`
	ReferenceBars int     `yaml:"reference_bars"`
}

func DefaultMomentum() Momentum { return Momentum{ThresholdPct: 1.5, ReferenceBars: 1} }

func (c Momentum) Family() Family { return FamilyMomentum }
func (c Momentum) Lookback() int  { return c.ReferenceBars + 1 }

func (c Momentum) Validate() error {
	if c.ThresholdPct <= 0 {
		return fmt.Errorf("threshold_pct must be positive, got %v", c.ThresholdPct)
	}
	return positive(map[string]int{"reference_bars": c.ReferenceBars})
}

// MACrossover fires when the short SMA crosses the long SMA.
type MACrossover struct {
	ShortPeriod int `yaml:"short_period"`
	LongPeriod  int `yaml:"long_period"`
}

func DefaultMACrossover() MACrossover { return MACrossover{ShortPeriod: 9, LongPeriod: 21} }

func (c MACrossover) Family() Family { return FamilyMACrossover }
func (c MACrossover) Lookback() int  { return c.LongPeriod + 1 }

func (c MACrossover) Validate() error {
	if err := positive(map[string]int{"short_period": c.ShortPeriod, "long_period": c.LongPeriod}); err != nil {
		return err
	}
	if c.ShortPeriod >= c.LongPeriod {
		return fmt.Errorf("short_period %d must be below long_period %d", c.ShortPeriod, c.LongPeriod)
	}
	return nil
}

func positive(fields map[string]int) error {
	var errs []error
	for name, v := range fields {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	return errors.Join(errs...)
}

func thresholds(oversold, overbought float64) error {
	if oversold <= 0 || overbought >= 100 || oversold >= overbought {
		return fmt.Errorf("need 0 < oversold (%v) < overbought (%v) < 100", oversold, overbought)
	}
	return nil
}

// Reference wraps a Config so it can be decoded from a single-key YAML mapping, e.g.
//
//	strategy:
//	  rsi_bollinger:
//	    rsi_period: 14
//
// Omitted parameters keep the family defaults.
type Reference struct {
	Config Config
}

func (r *Reference) UnmarshalYAML(value *yaml.Node) error {
	if len(value.Content) == 0 {
		return nil
	}
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return errors.New("invalid strategy yaml format")
	}

	key := value.Content[0].Value
	body := value.Content[1]
	switch Family(key) {
	case FamilyEMAStochastic:
		c := DefaultEMAStochastic()
		if err := body.Decode(&c); err != nil {
			return decodeError(key, err)
		}
		r.Config = c
	case FamilyRSIBollinger:
		c := DefaultRSIBollinger()
		if err := body.Decode(&c); err != nil {
			return decodeError(key, err)
		}
		r.Config = c
	case FamilyMomentum:
		c := DefaultMomentum()
		if err := body.Decode(&c); err != nil {
			return decodeError(key, err)
		}
		r.Config = c
	case FamilyMACrossover:
		c := DefaultMACrossover()
		if err := body.Decode(&c); err != nil {
			return decodeError(key, err)
		}
		r.Config = c
	default:
		return fmt.Errorf("unknown strategy type: %s", key)
	}
	return nil
}

func decodeError(key string, err error) error {
	return fmt.Errorf("failed parsing %s strategy config: %w", key, err)
}
