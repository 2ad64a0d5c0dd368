package trip

import (
	"github.com/cloudwego/eino/schema"
)

// Update is a partial update over TripState. It is the only way state
// changes: steps return one, the engine applies it, and the streaming
// session relays it so a client-side mirror can apply the exact same
// reducer.
//
// Merge semantics per field group:
//   - scalar pointers: replace when non-nil
//   - collections: replace when non-nil (an empty non-nil slice clears)
//   - Messages, UserPreferences: append
type Update struct {
	Origin          *string `json:"origin,omitempty"`
	Destination     *string `json:"destination,omitempty"`
	OriginID        *string `json:"origin_id,omitempty"`
	DestinationID   *string `json:"destination_id,omitempty"`
	OriginCity      *string `json:"origin_city,omitempty"`
	DestinationCity *string `json:"destination_city,omitempty"`
	StartDate       *string `json:"start_date,omitempty"`
	EndDate         *string `json:"end_date,omitempty"`

	Bedrooms         *int     `json:"bedrooms,omitempty"`
	MaxPricePerNight *float64 `json:"max_price_per_night,omitempty"`
	MinRating        *float64 `json:"min_rating,omitempty"`
	MaxFlightPrice   *float64 `json:"max_flight_price,omitempty"`

	TripPurpose        *string  `json:"trip_purpose,omitempty"`
	TravelParty        *string  `json:"travel_party,omitempty"`
	TravelerAge        *int     `json:"traveler_age,omitempty"`
	GroupAgeMin        *int     `json:"group_age_min,omitempty"`
	GroupAgeMax        *int     `json:"group_age_max,omitempty"`
	TransportationMode *string  `json:"transportation_mode,omitempty"`
	Budget             *float64 `json:"budget,omitempty"`
	AccessibilityNeeds *string  `json:"accessibility_needs,omitempty"`
	LocationScope      *string  `json:"location_scope,omitempty"`
	TravelPace         *string  `json:"travel_pace,omitempty"`
	Interests          *string  `json:"interests,omitempty"`

	WeatherSummary    *string       `json:"weather_summary,omitempty"`
	WeatherInfo       *WeatherInfo  `json:"weather_info,omitempty"`
	Accommodations    []HotelOffer  `json:"accommodations,omitempty"`
	Flights           []FlightOffer `json:"flights,omitempty"`
	RecommendedHotels []HotelOffer  `json:"recommended_hotels,omitempty"`

	TopSights   []map[string]any `json:"top_sights,omitempty"`
	LocalPlaces []map[string]any `json:"local_places,omitempty"`
	LocalNews   []map[string]any `json:"local_news,omitempty"`
	Discussions []map[string]any `json:"discussions,omitempty"`
	Widgets     []Widget         `json:"generated_ui,omitempty"`

	Itinerary            *string  `json:"itinerary,omitempty"`
	TripAnalysis         *string  `json:"trip_analysis,omitempty"`
	ConstraintViolations []string `json:"constraint_violations,omitempty"`
	RetryCount           *int     `json:"retry_count,omitempty"`
	LastError            *string  `json:"last_error,omitempty"`
	Cached               *bool    `json:"cached,omitempty"`

	Messages        []*schema.Message `json:"messages,omitempty"`
	UserPreferences []string          `json:"user_preferences,omitempty"`
}

// IsZero reports whether the update carries no changes at all.
func (u Update) IsZero() bool {
	return u.Origin == nil && u.Destination == nil && u.OriginID == nil &&
		u.DestinationID == nil && u.OriginCity == nil && u.DestinationCity == nil &&
		u.StartDate == nil && u.EndDate == nil &&
		u.Bedrooms == nil && u.MaxPricePerNight == nil && u.MinRating == nil &&
		u.MaxFlightPrice == nil &&
		u.TripPurpose == nil && u.TravelParty == nil && u.TravelerAge == nil &&
		u.GroupAgeMin == nil && u.GroupAgeMax == nil && u.TransportationMode == nil &&
		u.Budget == nil && u.AccessibilityNeeds == nil && u.LocationScope == nil &&
		u.TravelPace == nil && u.Interests == nil &&
		u.WeatherSummary == nil && u.WeatherInfo == nil &&
		u.Accommodations == nil && u.Flights == nil && u.RecommendedHotels == nil &&
		u.TopSights == nil && u.LocalPlaces == nil && u.LocalNews == nil &&
		u.Discussions == nil && u.Widgets == nil &&
		u.Itinerary == nil && u.TripAnalysis == nil && u.ConstraintViolations == nil &&
		u.RetryCount == nil && u.LastError == nil && u.Cached == nil &&
		u.Messages == nil && u.UserPreferences == nil
}

// Apply merges the update into the state in place.
func (u Update) Apply(s *TripState) {
	if s == nil {
		return
	}

	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}

	setStr(&s.Origin, u.Origin)
	setStr(&s.Destination, u.Destination)
	setStr(&s.OriginID, u.OriginID)
	setStr(&s.DestinationID, u.DestinationID)
	setStr(&s.OriginCity, u.OriginCity)
	setStr(&s.DestinationCity, u.DestinationCity)
	setStr(&s.StartDate, u.StartDate)
	setStr(&s.EndDate, u.EndDate)

	setInt(&s.Bedrooms, u.Bedrooms)
	setFloat(&s.MaxPricePerNight, u.MaxPricePerNight)
	setFloat(&s.MinRating, u.MinRating)
	setFloat(&s.MaxFlightPrice, u.MaxFlightPrice)

	setStr(&s.TripPurpose, u.TripPurpose)
	setStr(&s.TravelParty, u.TravelParty)
	setInt(&s.TravelerAge, u.TravelerAge)
	setInt(&s.GroupAgeMin, u.GroupAgeMin)
	setInt(&s.GroupAgeMax, u.GroupAgeMax)
	setStr(&s.TransportationMode, u.TransportationMode)
	setFloat(&s.Budget, u.Budget)
	setStr(&s.AccessibilityNeeds, u.AccessibilityNeeds)
	setStr(&s.LocationScope, u.LocationScope)
	setStr(&s.TravelPace, u.TravelPace)
	setStr(&s.Interests, u.Interests)

	setStr(&s.WeatherSummary, u.WeatherSummary)
	if u.WeatherInfo != nil {
		s.WeatherInfo = u.WeatherInfo
	}
	if u.Accommodations != nil {
		s.Accommodations = u.Accommodations
	}
	if u.Flights != nil {
		s.Flights = u.Flights
	}
	if u.RecommendedHotels != nil {
		s.RecommendedHotels = u.RecommendedHotels
	}
	if u.TopSights != nil {
		s.TopSights = u.TopSights
	}
	if u.LocalPlaces != nil {
		s.LocalPlaces = u.LocalPlaces
	}
	if u.LocalNews != nil {
		s.LocalNews = u.LocalNews
	}
	if u.Discussions != nil {
		s.Discussions = u.Discussions
	}
	if u.Widgets != nil {
		s.Widgets = u.Widgets
	}

	setStr(&s.Itinerary, u.Itinerary)
	setStr(&s.TripAnalysis, u.TripAnalysis)
	if u.ConstraintViolations != nil {
		s.ConstraintViolations = u.ConstraintViolations
	}
	setInt(&s.RetryCount, u.RetryCount)
	setStr(&s.LastError, u.LastError)
	if u.Cached != nil {
		s.Cached = *u.Cached
	}

	s.Messages = append(s.Messages, u.Messages...)
	s.UserPreferences = append(s.UserPreferences, u.UserPreferences...)

	s.normalize()
}

// StateUpdate is the structured diff returned by the feedback-extraction
// capability during refinement. The rerun flags tell the session which
// steps to re-execute.
type StateUpdate struct {
	MaxPricePerNight *float64 `json:"max_price_per_night,omitempty"`
	MinRating        *float64 `json:"min_rating,omitempty"`
	TravelPace       *string  `json:"travel_pace,omitempty"`
	Interests        *string  `json:"interests,omitempty"`
	TripPurpose      *string  `json:"trip_purpose,omitempty"`
	Bedrooms         *int     `json:"bedrooms,omitempty"`

	// NewPreference carries a durable user preference extracted from the
	// feedback, e.g. "Airline: Delta Only".
	NewPreference string `json:"new_preference,omitempty"`

	RerunHotels    bool `json:"rerun_hotels"`
	RerunItinerary bool `json:"rerun_itinerary"`
}

// ToUpdate converts the diff into a reducer update. NewPreference is
// deliberately excluded; the session records it through the preference
// store first so it survives the conversation.
func (d StateUpdate) ToUpdate() Update {
	return Update{
		MaxPricePerNight: d.MaxPricePerNight,
		MinRating:        d.MinRating,
		TravelPace:       d.TravelPace,
		Interests:        d.Interests,
		TripPurpose:      d.TripPurpose,
		Bedrooms:         d.Bedrooms,
	}
}

// Pointer helpers for building updates.

func String(v string) *string { return &v }

func Int(v int) *int { return &v }

func Float(v float64) *float64 { return &v }

func Bool(v bool) *bool { return &v }
