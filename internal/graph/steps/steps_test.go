package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-poc/server/internal/trip"
)

// Fakes for every injected capability. Each one counts its calls so tests
// can assert which branches ran.

type fakeFlights struct {
	calls  int
	offers [][]trip.FlightOffer
	err    error
}

func (f *fakeFlights) SearchFlights(ctx context.Context, q FlightQuery) ([]trip.FlightOffer, error) {
	call := f.calls
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if call >= len(f.offers) {
		if len(f.offers) == 0 {
			return nil, nil
		}
		return f.offers[len(f.offers)-1], nil
	}
	return f.offers[call], nil
}

type fakeHotels struct {
	calls  int
	offers [][]trip.HotelOffer
	// lastQuery records constraints so correction effects are observable.
	lastQuery HotelQuery
}

func (f *fakeHotels) SearchHotels(ctx context.Context, q HotelQuery) ([]trip.HotelOffer, error) {
	f.lastQuery = q
	call := f.calls
	f.calls++
	if call >= len(f.offers) {
		if len(f.offers) == 0 {
			return nil, nil
		}
		return f.offers[len(f.offers)-1], nil
	}
	return f.offers[call], nil
}

type fakeCommunity struct{}

func (fakeCommunity) TopSights(ctx context.Context, location string) ([]map[string]any, error) {
	return []map[string]any{{"title": "Tower Bridge"}}, nil
}
func (fakeCommunity) LocalPlaces(ctx context.Context, location string) ([]map[string]any, error) {
	return []map[string]any{{"title": "Borough Market"}}, nil
}
func (fakeCommunity) News(ctx context.Context, query string) ([]map[string]any, error) {
	return nil, nil
}
func (fakeCommunity) Discussions(ctx context.Context, location string) ([]map[string]any, error) {
	return nil, nil
}

type fakeWeather struct{}

func (fakeWeather) Forecast(ctx context.Context, destination string) (string, *trip.WeatherInfo, error) {
	return "Temperature ranges between 12.0°C and 18.0°C.", &trip.WeatherInfo{}, nil
}

type fakeGenerator struct {
	itinerary string
	note      string
	diff      trip.StateUpdate
	diffErr   error
}

func (g *fakeGenerator) GenerateItinerary(ctx context.Context, s *trip.TripState) (string, error) {
	return g.itinerary, nil
}
func (g *fakeGenerator) GenerateTripNote(ctx context.Context, s *trip.TripState) (string, error) {
	return g.note, nil
}
func (g *fakeGenerator) ExtractStateUpdate(ctx context.Context, s *trip.TripState, feedback string) (trip.StateUpdate, error) {
	return g.diff, g.diffErr
}

type fakeStore struct {
	saved         []*trip.TripState
	cachedFlights []trip.FlightOffer
	cachedHotels  []trip.HotelOffer
}

func (f *fakeStore) SaveTripPlan(ctx context.Context, s *trip.TripState) (int64, error) {
	f.saved = append(f.saved, s.Clone())
	return int64(len(f.saved)), nil
}

func (f *fakeStore) FindCachedRoute(ctx context.Context, origin, destination string) ([]trip.FlightOffer, []trip.HotelOffer, error) {
	return f.cachedFlights, f.cachedHotels, nil
}

type fakePrefs struct {
	stored map[string][]string
}

func (f *fakePrefs) Add(ctx context.Context, userID, preference string) error {
	if f.stored == nil {
		f.stored = map[string][]string{}
	}
	f.stored[userID] = append(f.stored[userID], preference)
	return nil
}

func (f *fakePrefs) List(ctx context.Context, userID string) ([]string, error) {
	return f.stored[userID], nil
}

func testDeps(flights *fakeFlights, hotels *fakeHotels, store *fakeStore) Deps {
	return Deps{
		Flights:   flights,
		Hotels:    hotels,
		Community: fakeCommunity{},
		Weather:   fakeWeather{},
		Generator: &fakeGenerator{
			itinerary: "Day 1: arrive and explore.",
			note:      "Great value trip for the dates chosen.",
		},
		Store:       store,
		Preferences: &fakePrefs{},
		UserID:      "traveler-1",
	}
}

func newPlanState(origin, destination string) *trip.TripState {
	s := trip.NewState()
	s.Origin = origin
	s.Destination = destination
	s.StartDate = "2026-09-10"
	s.EndDate = "2026-09-15"
	return s
}

func TestFullPlan_CacheMiss(t *testing.T) {
	flights := &fakeFlights{offers: [][]trip.FlightOffer{{
		flight("Delta", trip.Float(500)),
		flight("British Airways", trip.Float(450)),
	}}}
	hotels := &fakeHotels{offers: [][]trip.HotelOffer{{
		hotel("Decent Inn", trip.Float(120), trip.Float(4.0)),
		hotel("The Savoy", trip.Float(180), trip.Float(4.5)),
	}}}
	store := &fakeStore{}

	g, err := Build(testDeps(flights, hotels, store))
	require.NoError(t, err)

	var order []string
	s := newPlanState("JFK", "London")
	for ev := range g.Stream(context.Background(), s) {
		require.NoError(t, ev.Err)
		order = append(order, ev.Step)
	}

	assert.Equal(t, []string{
		StepWeather, StepCommunity, StepCache,
		StepLiveSearch, StepFlightAPI, StepStore,
		StepRecommendHotels, StepRecommendFlights,
		StepConstraints, StepReasoning, StepItinerary,
	}, order)

	// Cheapest flight first.
	require.Len(t, s.Flights, 2)
	assert.Equal(t, "British Airways", s.Flights[0].Airline)
	assert.Equal(t, "Delta", s.Flights[1].Airline)

	// Highest rated hotel first.
	require.Len(t, s.RecommendedHotels, 2)
	assert.Equal(t, "The Savoy", s.RecommendedHotels[0].Name)

	assert.Equal(t, "Day 1: arrive and explore.", s.Itinerary)
	assert.Equal(t, "Great value trip for the dates chosen.", s.TripAnalysis)
	assert.Contains(t, s.WeatherSummary, "Temperature ranges")
	require.Len(t, s.Messages, 1, "the itinerary joins the conversation history")

	require.Len(t, store.saved, 1, "results are persisted exactly once")
	assert.Equal(t, 1, flights.calls)
	assert.Equal(t, 1, hotels.calls)
}

func TestFullPlan_CorrectionRetriesOnce(t *testing.T) {
	flights := &fakeFlights{offers: [][]trip.FlightOffer{{
		flight("Delta", trip.Float(500)),
	}}}
	hotels := &fakeHotels{offers: [][]trip.HotelOffer{
		{}, // first search finds nothing
		{hotel("Budget Stay", trip.Float(80), trip.Float(3.2))},
	}}
	store := &fakeStore{}

	g, err := Build(testDeps(flights, hotels, store))
	require.NoError(t, err)

	s := newPlanState("JFK", "London")
	s.MinRating = 4.5

	_, err = g.Invoke(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 2, hotels.calls, "live search runs exactly twice")
	assert.Equal(t, 2, flights.calls)
	assert.Equal(t, 1, s.RetryCount)
	assert.Equal(t, "No hotels found initially.", s.LastError)
	assert.Equal(t, 3.0, s.MinRating, "rating constraint was relaxed for the retry")
	assert.Equal(t, 3.0, hotels.lastQuery.MinRating, "the retry searched with the relaxed constraint")
	require.Len(t, s.RecommendedHotels, 1)
	assert.Equal(t, "Budget Stay", s.RecommendedHotels[0].Name)
	require.Len(t, store.saved, 1)
}

func TestFullPlan_PersistentEmptinessStopsAfterOneRetry(t *testing.T) {
	flights := &fakeFlights{} // always empty
	hotels := &fakeHotels{}   // always empty
	store := &fakeStore{}

	g, err := Build(testDeps(flights, hotels, store))
	require.NoError(t, err)

	s := newPlanState("JFK", "Nowhere")
	_, err = g.Invoke(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 2, hotels.calls)
	assert.Equal(t, 1, s.RetryCount)
	assert.Empty(t, s.Flights)
	assert.Empty(t, s.RecommendedHotels)
	require.Len(t, store.saved, 1, "an empty result set is still recorded")
	assert.NotEmpty(t, s.Itinerary, "the run completes end to end")
}

func TestFullPlan_RouteCacheHitSkipsLiveSearch(t *testing.T) {
	flights := &fakeFlights{}
	hotels := &fakeHotels{}
	store := &fakeStore{
		cachedFlights: []trip.FlightOffer{flight("Delta", trip.Float(480))},
		cachedHotels:  []trip.HotelOffer{hotel("Stored Inn", trip.Float(110), trip.Float(4.1))},
	}

	g, err := Build(testDeps(flights, hotels, store))
	require.NoError(t, err)

	var order []string
	s := newPlanState("JFK", "London")
	for ev := range g.Stream(context.Background(), s) {
		require.NoError(t, ev.Err)
		order = append(order, ev.Step)
	}

	assert.Equal(t, []string{
		StepWeather, StepCommunity, StepCache,
		StepRecommendHotels, StepRecommendFlights,
		StepConstraints, StepReasoning, StepItinerary,
	}, order)

	assert.Zero(t, flights.calls, "cache hit must not touch the flight API")
	assert.Zero(t, hotels.calls)
	assert.Empty(t, store.saved, "a cached route is not re-persisted")
	require.Len(t, s.RecommendedHotels, 1)
	assert.Equal(t, "Stored Inn", s.RecommendedHotels[0].Name)
}

func TestCommunityStep_BuildsWidgetsByPriority(t *testing.T) {
	u, err := NewCommunityStep(fakeCommunity{})(context.Background(), newPlanState("JFK", "London"))
	require.NoError(t, err)

	require.NotEmpty(t, u.Widgets)
	for i := 1; i < len(u.Widgets); i++ {
		assert.GreaterOrEqual(t, u.Widgets[i-1].Priority, u.Widgets[i].Priority,
			"widgets are ordered by descending priority")
	}
	assert.NotEmpty(t, u.TopSights)
	assert.NotEmpty(t, u.LocalPlaces)
}
