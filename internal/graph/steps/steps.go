// Package steps holds the named units of work of the planning graph and the
// capability interfaces they depend on. Every step is a pure function from
// state to a partial update; external collaborators are injected through
// Deps.
package steps

import (
	"context"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
)

// Step names as registered in the graph.
const (
	StepWeather          = "weather"
	StepCommunity        = "community"
	StepCache            = "cache"
	StepLiveSearch       = "live_search"
	StepFlightAPI        = "flight_api"
	StepCorrection       = "correction"
	StepStore            = "store"
	StepRecommendHotels  = "recommend_hotels"
	StepRecommendFlights = "recommend_flights"
	StepConstraints      = "constraints"
	StepReasoning        = "reasoning"
	StepItinerary        = "itinerary"
)

// FlightQuery carries the inputs of one flight search.
type FlightQuery struct {
	Origin      string
	Destination string
	StartDate   string
	EndDate     string
}

// FlightSearcher searches live flight offers. An empty slice with a nil
// error means no results; a non-nil error is an adapter failure the step
// downgrades to empty results.
type FlightSearcher interface {
	SearchFlights(ctx context.Context, q FlightQuery) ([]trip.FlightOffer, error)
}

// HotelQuery carries the inputs of one accommodation search.
type HotelQuery struct {
	Location         string
	StartDate        string
	EndDate          string
	Bedrooms         int
	MaxPricePerNight float64
	MinRating        float64
}

// HotelSearcher searches live accommodation offers.
type HotelSearcher interface {
	SearchHotels(ctx context.Context, q HotelQuery) ([]trip.HotelOffer, error)
}

// CommunitySearcher fetches ancillary destination content.
type CommunitySearcher interface {
	TopSights(ctx context.Context, location string) ([]map[string]any, error)
	LocalPlaces(ctx context.Context, location string) ([]map[string]any, error)
	News(ctx context.Context, query string) ([]map[string]any, error)
	Discussions(ctx context.Context, location string) ([]map[string]any, error)
}

// WeatherService resolves a destination to a forecast summary.
type WeatherService interface {
	Forecast(ctx context.Context, destination string) (string, *trip.WeatherInfo, error)
}

// Generator is the opaque text-generation capability: free-text drafting
// plus structured extraction. Any call may fail; steps fall back to fixed
// text and the session falls back to a no-op diff.
type Generator interface {
	GenerateItinerary(ctx context.Context, s *trip.TripState) (string, error)
	GenerateTripNote(ctx context.Context, s *trip.TripState) (string, error)
	ExtractStateUpdate(ctx context.Context, s *trip.TripState, feedback string) (trip.StateUpdate, error)
}

// TripStore is the persistence surface the graph needs: saving a finished
// plan and looking up previously stored route results for the cache step.
type TripStore interface {
	SaveTripPlan(ctx context.Context, s *trip.TripState) (int64, error)
	FindCachedRoute(ctx context.Context, origin, destination string) ([]trip.FlightOffer, []trip.HotelOffer, error)
}

// PreferenceStore is the long-term user preference memory. It is an
// explicitly injected dependency, owned by the caller, never a process-wide
// singleton.
type PreferenceStore interface {
	Add(ctx context.Context, userID, preference string) error
	List(ctx context.Context, userID string) ([]string, error)
}

// Deps bundles the collaborators injected into the step registry.
type Deps struct {
	Flights     FlightSearcher
	Hotels      HotelSearcher
	Community   CommunitySearcher
	Weather     WeatherService
	Generator   Generator
	Store       TripStore
	Preferences PreferenceStore
	UserID      string
}

// Register wires the full planning topology into the builder:
//
//	weather -> community -> cache --route_cache--> recommend_hotels (hit)
//	                               \--> live_search -> flight_api
//	flight_api --should_correct--> correction -> live_search (loop back)
//	                               \--> store -> recommend_hotels
//	recommend_hotels -> recommend_flights -> constraints -> reasoning
//	  -> itinerary -> End
func Register(b *graph.Builder, deps Deps) *graph.Builder {
	return b.
		AddStep(StepWeather, NewWeatherStep(deps.Weather)).
		AddStep(StepCommunity, NewCommunityStep(deps.Community)).
		AddStep(StepCache, NewCacheStep(deps.Store)).
		AddStep(StepLiveSearch, NewLiveSearchStep(deps.Hotels)).
		AddStep(StepFlightAPI, NewFlightAPIStep(deps.Flights, deps.Preferences, deps.UserID)).
		AddStep(StepCorrection, NewCorrectionStep()).
		AddStep(StepStore, NewStoreStep(deps.Store)).
		AddStep(StepRecommendHotels, NewRecommendHotelsStep()).
		AddStep(StepRecommendFlights, NewRecommendFlightsStep()).
		AddStep(StepConstraints, NewConstraintsStep()).
		AddStep(StepReasoning, NewReasoningStep(deps.Generator)).
		AddStep(StepItinerary, NewItineraryStep(deps.Generator)).
		SetEntry(StepWeather).
		AddEdge(StepWeather, StepCommunity).
		AddEdge(StepCommunity, StepCache).
		AddRouter(StepCache, RouteCache, StepRecommendHotels, StepLiveSearch).
		AddEdge(StepLiveSearch, StepFlightAPI).
		AddRouter(StepFlightAPI, ShouldCorrect, StepCorrection, StepStore).
		AddEdge(StepCorrection, StepLiveSearch).
		AddEdge(StepStore, StepRecommendHotels).
		AddEdge(StepRecommendHotels, StepRecommendFlights).
		AddEdge(StepRecommendFlights, StepConstraints).
		AddEdge(StepConstraints, StepReasoning).
		AddEdge(StepReasoning, StepItinerary).
		AddEdge(StepItinerary, graph.End)
}

// Build compiles the default planning graph.
func Build(deps Deps) (*graph.Runnable, error) {
	return Register(graph.New(), deps).Compile()
}
