// Package forecast turns a short-range hourly snowfall forecast into a
// boolean "snow expected soon" signal for the capture engine.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// Provider abstracts a short-range snowfall forecast source.
type Provider interface {
	Name() string
	// HourlySnowfallCM returns hourly snowfall amounts in centimeters,
	// aligned to a time axis starting at the current hour.
	HourlySnowfallCM(ctx context.Context, lat, lon float64) ([]float64, error)
}

// OpenMeteoProvider fetches hourly snowfall from Open-Meteo, which needs no
// API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	if client == nil {
		client = http.DefaultClient
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		client:  client,
		circuit: cb,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = u
	return p
}

func (p *OpenMeteoProvider) HourlySnowfallCM(ctx context.Context, lat, lon float64) ([]float64, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("hourly", "snowfall")
		// forecast_hours makes the hourly array start at the current hour;
		// a day-scoped request would start at 00:00 and misalign the
		// next-3h/6h sums.
		values.Set("forecast_hours", "6")
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithBreaker(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly struct {
			Snowfall []*float64 `json:"snowfall"`
		} `json:"hourly"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	// Null entries come back for hours the model has no data for; treat
	// them as zero snowfall.
	series := make([]float64, 0, len(payload.Hourly.Snowfall))
	for _, v := range payload.Hourly.Snowfall {
		if v == nil {
			series = append(series, 0)
			continue
		}
		series = append(series, *v)
	}

	return series, nil
}
