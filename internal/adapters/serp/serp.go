// Package serp is a thin HTTP client for the SerpAPI search engines used by
// the planner: Google Flights, Google Hotels and the community content
// engines. Adapter failures surface as errors; the graph steps decide the
// fallback (today: treat as empty).
package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/voyago-poc/server/internal/graph/steps"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// ErrNoAPIKey is returned when the client was built without credentials.
var ErrNoAPIKey = errors.New("serp: api key not configured")

const (
	maxFlightResults = 5
	maxHotelResults  = 10
)

type Config struct {
	APIKey  string `envconfig:"SERPAPI_API_KEY"`
	BaseURL string `envconfig:"SERPAPI_BASE_URL" default:"https://serpapi.com/search.json"`
	Timeout int    `envconfig:"SERPAPI_TIMEOUT" default:"10"`
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

// SearchFlights queries the Google Flights engine. Results come from
// best_flights, falling back to other_flights, capped at five offers.
func (c *Client) SearchFlights(ctx context.Context, q steps.FlightQuery) ([]trip.FlightOffer, error) {
	if q.Origin == "" || q.Destination == "" {
		return []trip.FlightOffer{}, nil
	}

	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("departure_id", q.Origin)
	params.Set("arrival_id", q.Destination)
	params.Set("outbound_date", q.StartDate)
	if q.EndDate != "" {
		params.Set("return_date", q.EndDate)
	}
	params.Set("currency", "USD")
	params.Set("hl", "en")

	results, err := c.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("flight search: %w", err)
	}

	offers := parseFlights(asSliceOfMaps(results["best_flights"]), q)
	if len(offers) == 0 {
		offers = parseFlights(asSliceOfMaps(results["other_flights"]), q)
	}
	if len(offers) > maxFlightResults {
		offers = offers[:maxFlightResults]
	}
	return offers, nil
}

func parseFlights(items []map[string]any, q steps.FlightQuery) []trip.FlightOffer {
	offers := []trip.FlightOffer{}
	for _, item := range items {
		airline := ""
		if legs := asSliceOfMaps(item["flights"]); len(legs) > 0 {
			airline = asString(legs[0]["airline"])
		}
		offer := trip.FlightOffer{
			Airline:     airline,
			Origin:      q.Origin,
			Destination: q.Destination,
			URL:         "https://www.google.com/travel/flights",
			Details:     item,
		}
		if price, ok := asFloat(item["price"]); ok {
			offer.Price = trip.Float(price)
		}
		offers = append(offers, offer)
	}
	return offers
}

// SearchHotels queries the Google Hotels engine for the location, capped at
// ten properties.
func (c *Client) SearchHotels(ctx context.Context, q steps.HotelQuery) ([]trip.HotelOffer, error) {
	params := url.Values{}
	params.Set("engine", "google_hotels")
	params.Set("q", "hotels in "+q.Location)
	params.Set("check_in_date", q.StartDate)
	params.Set("check_out_date", q.EndDate)
	params.Set("adults", "1")
	params.Set("currency", "USD")
	params.Set("gl", "us")
	params.Set("hl", "en")

	results, err := c.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("hotel search: %w", err)
	}

	offers := []trip.HotelOffer{}
	for _, prop := range asSliceOfMaps(results["properties"]) {
		offer := trip.HotelOffer{
			Name:        asString(prop["name"]),
			City:        q.Location,
			URL:         asString(prop["link"]),
			Description: asString(prop["description"]),
		}
		if rate := asMap(prop["rate_per_night"]); rate != nil {
			if v, ok := parseMoney(rate["lowest"]); ok {
				offer.Price = trip.Float(v)
			}
		}
		if rating, ok := asFloat(prop["overall_rating"]); ok {
			offer.Rating = trip.Float(rating)
		}
		if images := asSliceOfMaps(prop["images"]); len(images) > 0 {
			offer.ImageURL = asString(images[0]["thumbnail"])
		}
		offers = append(offers, offer)
		if len(offers) == maxHotelResults {
			break
		}
	}
	return offers, nil
}

// TopSights returns sightseeing results for the location.
func (c *Client) TopSights(ctx context.Context, location string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", "top sights in "+location)
	params.Set("hl", "en")

	results, err := c.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("sights search: %w", err)
	}
	if top := asMap(results["top_sights"]); top != nil {
		return asSliceOfMaps(top["sights"]), nil
	}
	return []map[string]any{}, nil
}

// LocalPlaces returns local-gem results for the location.
func (c *Client) LocalPlaces(ctx context.Context, location string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("engine", "google_local")
	params.Set("q", "best local places in "+location)
	params.Set("hl", "en")

	results, err := c.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("local search: %w", err)
	}
	return asSliceOfMaps(results["local_results"]), nil
}

// News returns news results for the query.
func (c *Client) News(ctx context.Context, query string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("engine", "google_news")
	params.Set("q", query)
	params.Set("hl", "en")

	results, err := c.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}
	return asSliceOfMaps(results["news_results"]), nil
}

// Discussions returns forum/discussion results for the location.
func (c *Client) Discussions(ctx context.Context, location string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", location+" travel discussions")
	params.Set("hl", "en")

	results, err := c.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("discussions search: %w", err)
	}
	return asSliceOfMaps(results["discussions_and_forums"]), nil
}

func (c *Client) get(ctx context.Context, params url.Values) (map[string]any, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logx.Warn().Int("status", resp.StatusCode).Str("engine", params.Get("engine")).Msg("serp request failed")
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var results map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return results, nil
}

// --- loose JSON helpers ---

func asSliceOfMaps(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return []map[string]any{}
	}
	out := []map[string]any{}
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseMoney cleans display strings like "$1,200" into a number.
func parseMoney(v any) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return asFloat(v)
	}
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
