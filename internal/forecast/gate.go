package forecast

import (
	"context"
	"log"
)

const cmPerInch = 2.54

// Default gate thresholds, in inches of forecast snowfall. Empirically
// chosen; configurable but the defaults should not be changed.
const (
	DefaultNext3hThresholdIn = 0.25
	DefaultNext6hThresholdIn = 1.0
)

// Thresholds holds the snowfall amounts at which the gate fires.
type Thresholds struct {
	Next3hIn float64
	Next6hIn float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Next3hIn: DefaultNext3hThresholdIn,
		Next6hIn: DefaultNext6hThresholdIn,
	}
}

// Verdict is the gate's decision plus the derived sums for observability.
type Verdict struct {
	Snow     bool    `json:"snow"`
	Next3hIn float64 `json:"next3hIn"`
	Next6hIn float64 `json:"next6hIn"`
}

// Evaluate sums the first 3 and first 6 hourly centimeter amounts,
// converted to inches, and applies the thresholds. An empty series yields
// "no snow".
func Evaluate(hourlyCM []float64, th Thresholds) Verdict {
	var v Verdict
	for i, cm := range hourlyCM {
		if i >= 6 {
			break
		}
		in := cm / cmPerInch
		if i < 3 {
			v.Next3hIn += in
		}
		v.Next6hIn += in
	}
	v.Snow = v.Next3hIn >= th.Next3hIn || v.Next6hIn >= th.Next6hIn
	return v
}

// Gate combines a forecast provider with threshold policy.
type Gate struct {
	provider   Provider
	thresholds Thresholds
}

func NewGate(provider Provider, thresholds Thresholds) *Gate {
	return &Gate{provider: provider, thresholds: thresholds}
}

// ExpectsSnow fetches the hourly series and evaluates it. Any fetch or
// parse failure degrades to a (0, 0) verdict; the gate never fails a
// capture cycle.
func (g *Gate) ExpectsSnow(ctx context.Context, lat, lon float64) Verdict {
	series, err := g.provider.HourlySnowfallCM(ctx, lat, lon)
	if err != nil {
		log.Printf("forecast: %s fetch failed for (%.4f, %.4f): %v", g.provider.Name(), lat, lon, err)
		return Verdict{}
	}
	return Evaluate(series, g.thresholds)
}
