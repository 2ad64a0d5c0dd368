package trip

import (
	"github.com/cloudwego/eino/schema"
)

// TripState is the single mutable aggregate threaded through the planning
// graph. It is owned by the engine (and, across refinements, the session);
// steps never mutate it in place, they return an Update.
type TripState struct {
	// Trip parameters
	Origin          string `json:"origin,omitempty"`
	Destination     string `json:"destination,omitempty"`
	OriginID        string `json:"origin_id,omitempty"`
	DestinationID   string `json:"destination_id,omitempty"`
	OriginCity      string `json:"origin_city,omitempty"`
	DestinationCity string `json:"destination_city,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`

	// Search constraints
	Bedrooms         int     `json:"bedrooms"`
	MaxPricePerNight float64 `json:"max_price_per_night"`
	MinRating        float64 `json:"min_rating"`
	MaxFlightPrice   float64 `json:"max_flight_price,omitempty"`

	TripPurpose        string  `json:"trip_purpose,omitempty"`
	TravelParty        string  `json:"travel_party,omitempty"`
	TravelerAge        int     `json:"traveler_age,omitempty"`
	GroupAgeMin        int     `json:"group_age_min,omitempty"`
	GroupAgeMax        int     `json:"group_age_max,omitempty"`
	TransportationMode string  `json:"transportation_mode,omitempty"`
	Budget             float64 `json:"budget,omitempty"`
	AccessibilityNeeds string  `json:"accessibility_needs,omitempty"`
	LocationScope      string  `json:"location_scope,omitempty"`
	TravelPace         string  `json:"travel_pace,omitempty"`
	Interests          string  `json:"interests,omitempty"`

	// Result collections. Never nil; absence is the empty slice.
	WeatherSummary    string        `json:"weather_summary,omitempty"`
	WeatherInfo       *WeatherInfo  `json:"weather_info,omitempty"`
	Accommodations    []HotelOffer  `json:"accommodations"`
	Flights           []FlightOffer `json:"flights"`
	RecommendedHotels []HotelOffer  `json:"recommended_hotels"`

	// Community content
	TopSights   []map[string]any `json:"top_sights"`
	LocalPlaces []map[string]any `json:"local_places"`
	LocalNews   []map[string]any `json:"local_news"`
	Discussions []map[string]any `json:"discussions"`
	Widgets     []Widget         `json:"generated_ui"`

	// Derived / analysis
	Itinerary            string   `json:"itinerary,omitempty"`
	TripAnalysis         string   `json:"trip_analysis,omitempty"`
	ConstraintViolations []string `json:"constraint_violations"`
	RetryCount           int      `json:"retry_count"`
	LastError            string   `json:"last_error,omitempty"`
	UserPreferences      []string `json:"user_preferences"`
	Cached               bool     `json:"cached,omitempty"`

	// Conversation history, used for checkpoint continuation.
	Messages []*schema.Message `json:"messages"`
}

// NewState returns a TripState with the documented defaults applied and all
// collections initialised to empty.
func NewState() *TripState {
	s := &TripState{
		Bedrooms:           1,
		MaxPricePerNight:   200.0,
		MinRating:          4.0,
		TripPurpose:        "vacation",
		TravelParty:        "solo",
		TransportationMode: "public",
		AccessibilityNeeds: "None",
		LocationScope:      "Domestic",
		TravelPace:         "Moderate",
		Interests:          "General sightseeing",
	}
	s.normalize()
	return s
}

// normalize replaces nil collections with empty ones so downstream code can
// rely on the never-nil invariant.
func (s *TripState) normalize() {
	if s.Accommodations == nil {
		s.Accommodations = []HotelOffer{}
	}
	if s.Flights == nil {
		s.Flights = []FlightOffer{}
	}
	if s.RecommendedHotels == nil {
		s.RecommendedHotels = []HotelOffer{}
	}
	if s.TopSights == nil {
		s.TopSights = []map[string]any{}
	}
	if s.LocalPlaces == nil {
		s.LocalPlaces = []map[string]any{}
	}
	if s.LocalNews == nil {
		s.LocalNews = []map[string]any{}
	}
	if s.Discussions == nil {
		s.Discussions = []map[string]any{}
	}
	if s.Widgets == nil {
		s.Widgets = []Widget{}
	}
	if s.ConstraintViolations == nil {
		s.ConstraintViolations = []string{}
	}
	if s.UserPreferences == nil {
		s.UserPreferences = []string{}
	}
	if s.Messages == nil {
		s.Messages = []*schema.Message{}
	}
}

// Clone returns a copy safe to hand to another goroutine. Slice headers are
// copied, offer values are copied; map payloads inside offers are shared and
// treated as read-only by convention.
func (s *TripState) Clone() *TripState {
	if s == nil {
		return nil
	}
	c := *s
	c.Accommodations = append([]HotelOffer{}, s.Accommodations...)
	c.Flights = append([]FlightOffer{}, s.Flights...)
	c.RecommendedHotels = append([]HotelOffer{}, s.RecommendedHotels...)
	c.TopSights = append([]map[string]any{}, s.TopSights...)
	c.LocalPlaces = append([]map[string]any{}, s.LocalPlaces...)
	c.LocalNews = append([]map[string]any{}, s.LocalNews...)
	c.Discussions = append([]map[string]any{}, s.Discussions...)
	c.Widgets = append([]Widget{}, s.Widgets...)
	c.ConstraintViolations = append([]string{}, s.ConstraintViolations...)
	c.UserPreferences = append([]string{}, s.UserPreferences...)
	c.Messages = append([]*schema.Message{}, s.Messages...)
	if s.WeatherInfo != nil {
		wi := *s.WeatherInfo
		wi.Daily = append([]DailyForecast{}, s.WeatherInfo.Daily...)
		c.WeatherInfo = &wi
	}
	return &c
}

// DestinationQuery is the free-text location used for weather, hotel and
// community lookups: the city name when known, the raw destination otherwise.
func (s *TripState) DestinationQuery() string {
	if s.DestinationCity != "" {
		return s.DestinationCity
	}
	return s.Destination
}
