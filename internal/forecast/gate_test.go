package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestEvaluateEmptySeriesNoSnow(t *testing.T) {
	v := Evaluate(nil, DefaultThresholds())
	if v.Snow {
		t.Fatal("empty series must yield no snow")
	}
	if v.Next3hIn != 0 || v.Next6hIn != 0 {
		t.Fatalf("empty series must yield zero sums, got %v", v)
	}
}

func TestEvaluateFirstHourBurstTripsThreeHourThreshold(t *testing.T) {
	// 0.7cm in the first hour is about 0.28in, over the 0.25in threshold.
	v := Evaluate([]float64{0.7, 0, 0, 0, 0, 0}, DefaultThresholds())
	if !v.Snow {
		t.Fatalf("expected snow verdict, got %v", v)
	}
	want := 0.7 / 2.54
	if math.Abs(v.Next3hIn-want) > 1e-9 {
		t.Fatalf("next3h: want %f, got %f", want, v.Next3hIn)
	}
}

func TestEvaluateSixHourAccumulationTripsThreshold(t *testing.T) {
	// Nothing in the first 3 hours, 2.6cm (~1.02in) over six.
	v := Evaluate([]float64{0, 0, 0, 1.0, 1.0, 0.6}, DefaultThresholds())
	if v.Next3hIn != 0 {
		t.Fatalf("next3h should be zero, got %f", v.Next3hIn)
	}
	if !v.Snow {
		t.Fatalf("expected snow verdict from 6h accumulation, got %v", v)
	}
}

func TestEvaluateBelowThresholds(t *testing.T) {
	// 0.5cm (~0.2in) in 3h, 1.2cm (~0.47in) in 6h: both under.
	v := Evaluate([]float64{0.2, 0.2, 0.1, 0.3, 0.2, 0.2}, DefaultThresholds())
	if v.Snow {
		t.Fatalf("expected no snow, got %v", v)
	}
}

func TestEvaluateIgnoresEntriesBeyondSixHours(t *testing.T) {
	v := Evaluate([]float64{0, 0, 0, 0, 0, 0, 50, 50}, DefaultThresholds())
	if v.Snow || v.Next6hIn != 0 {
		t.Fatalf("entries beyond hour 6 must be ignored, got %v", v)
	}
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) HourlySnowfallCM(ctx context.Context, lat, lon float64) ([]float64, error) {
	return nil, errors.New("network down")
}

func TestGateDegradesToNoSnowOnProviderFailure(t *testing.T) {
	g := NewGate(failingProvider{}, DefaultThresholds())

	v := g.ExpectsSnow(context.Background(), 40.5, -111.6)
	if v.Snow || v.Next3hIn != 0 || v.Next6hIn != 0 {
		t.Fatalf("provider failure must degrade to (0, 0) / no snow, got %v", v)
	}
}
