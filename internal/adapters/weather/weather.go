// Package weather resolves a destination to a temperature summary and a
// structured daily forecast via the Open-Meteo geocoding and forecast APIs.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// Fallback coordinates (Mumbai) when geocoding cannot resolve the
// destination.
const (
	fallbackLatitude  = 19.0760
	fallbackLongitude = 72.8777
)

type Config struct {
	GeocodingURL string `envconfig:"WEATHER_GEOCODING_URL" default:"https://geocoding-api.open-meteo.com/v1/search"`
	ForecastURL  string `envconfig:"WEATHER_FORECAST_URL" default:"https://api.open-meteo.com/v1/forecast"`
	Timeout      int    `envconfig:"WEATHER_TIMEOUT" default:"10"`
}

type Client struct {
	geocodingURL string
	forecastURL  string
	http         *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		geocodingURL: cfg.GeocodingURL,
		forecastURL:  cfg.ForecastURL,
		http:         &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

type geocodeResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Daily struct {
		Time             []string  `json:"time"`
		Temperature2mMax []float64 `json:"temperature_2m_max"`
		Temperature2mMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// Forecast geocodes the destination and fetches the daily min/max
// temperatures, summarised as the overall range.
func (c *Client) Forecast(ctx context.Context, destination string) (string, *trip.WeatherInfo, error) {
	lat, lon := c.geocode(ctx, destination)

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%g", lat))
	params.Set("longitude", fmt.Sprintf("%g", lon))
	params.Set("daily", "temperature_2m_max,temperature_2m_min")
	params.Set("timezone", "auto")

	var fc forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+params.Encode(), &fc); err != nil {
		return "", nil, fmt.Errorf("forecast: %w", err)
	}
	if len(fc.Daily.Temperature2mMax) == 0 || len(fc.Daily.Temperature2mMin) == 0 {
		return "", nil, fmt.Errorf("forecast: empty daily series for %q", destination)
	}

	maxT := fc.Daily.Temperature2mMax[0]
	for _, t := range fc.Daily.Temperature2mMax[1:] {
		if t > maxT {
			maxT = t
		}
	}
	minT := fc.Daily.Temperature2mMin[0]
	for _, t := range fc.Daily.Temperature2mMin[1:] {
		if t < minT {
			minT = t
		}
	}

	info := &trip.WeatherInfo{Latitude: lat, Longitude: lon}
	for i, date := range fc.Daily.Time {
		if i >= len(fc.Daily.Temperature2mMax) || i >= len(fc.Daily.Temperature2mMin) {
			break
		}
		info.Daily = append(info.Daily, trip.DailyForecast{
			Date:     date,
			MaxTempC: fc.Daily.Temperature2mMax[i],
			MinTempC: fc.Daily.Temperature2mMin[i],
		})
	}

	summary := fmt.Sprintf("Temperature ranges between %.1f°C and %.1f°C.", minT, maxT)
	return summary, info, nil
}

// geocode resolves the destination name, falling back to fixed coordinates
// on any failure.
func (c *Client) geocode(ctx context.Context, destination string) (float64, float64) {
	params := url.Values{}
	params.Set("name", destination)

	var geo geocodeResponse
	if err := c.getJSON(ctx, c.geocodingURL+"?"+params.Encode(), &geo); err != nil || len(geo.Results) == 0 {
		logx.Warn().Err(err).Str("destination", destination).Msg("geocoding failed; using fallback coordinates")
		return fallbackLatitude, fallbackLongitude
	}
	return geo.Results[0].Latitude, geo.Results[0].Longitude
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
