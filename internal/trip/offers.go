package trip

// FlightOffer is one flight result. Price is optional because upstream
// search responses omit it often enough that downstream ranking has to
// treat "no price" explicitly rather than as zero.
type FlightOffer struct {
	Airline     string         `json:"airline"`
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Price       *float64       `json:"price,omitempty"`
	URL         string         `json:"url,omitempty"`
	Departure   string         `json:"departure,omitempty"`
	Arrival     string         `json:"arrival,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// HotelOffer is one accommodation result. Price is the nightly rate.
type HotelOffer struct {
	Name        string   `json:"name"`
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Bedrooms    int      `json:"bedrooms,omitempty"`
	URL         string   `json:"url,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Widget is one interactive content card generated from community data.
type Widget struct {
	Type     string         `json:"type"`
	Priority int            `json:"priority"`
	Data     map[string]any `json:"data"`
}

// DailyForecast holds one day of the structured forecast.
type DailyForecast struct {
	Date     string  `json:"date"`
	MaxTempC float64 `json:"max_temp_c"`
	MinTempC float64 `json:"min_temp_c"`
}

// WeatherInfo is the structured forecast attached to a trip.
type WeatherInfo struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Daily     []DailyForecast `json:"daily"`
}

// CacheQuery identifies a trip for cache lookup purposes.
type CacheQuery struct {
	Origin      string
	Destination string
	StartDate   string
	EndDate     string
	TripPurpose string
}

// CachedTrip is the snapshot returned by the trip store when a recent
// matching plan exists.
type CachedTrip struct {
	OriginCity      string        `json:"origin_city,omitempty"`
	DestinationCity string        `json:"destination_city,omitempty"`
	WeatherSummary  string        `json:"weather_summary,omitempty"`
	WeatherInfo     *WeatherInfo  `json:"weather_info,omitempty"`
	Flights         []FlightOffer `json:"flights"`
	Accommodations  []HotelOffer  `json:"accommodations"`
	Itinerary       string        `json:"itinerary,omitempty"`
	Cached          bool          `json:"cached"`
}
