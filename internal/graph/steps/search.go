package steps

import (
	"context"
	"sort"
	"strings"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// NewLiveSearchStep searches live accommodations. Failure and "no results"
// both become the empty list; the correction router decides what happens
// next.
func NewLiveSearchStep(hotels HotelSearcher) graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		q := HotelQuery{
			Location:         s.DestinationQuery(),
			StartDate:        s.StartDate,
			EndDate:          s.EndDate,
			Bedrooms:         s.Bedrooms,
			MaxPricePerNight: s.MaxPricePerNight,
			MinRating:        s.MinRating,
		}
		logx.Info().Str("location", q.Location).Msg("searching hotels")

		found, err := hotels.SearchHotels(ctx, q)
		if err != nil {
			logx.Warn().Err(err).Msg("hotel search failed")
			found = nil
		}
		if found == nil {
			found = []trip.HotelOffer{}
		}
		if len(found) == 0 {
			logx.Warn().Msg("no hotels found")
		} else {
			logx.Info().Int("count", len(found)).Msg("hotels found")
		}
		return trip.Update{Accommodations: found}, nil
	}
}

// airlineKeywords maps preference phrasing to airline names recognised in
// offers, mirroring the keyword extraction the planner has always done.
var airlineKeywords = map[string]string{
	"delta":     "Delta",
	"united":    "United",
	"american":  "American",
	"lufthansa": "Lufthansa",
	"british":   "British",
	"france":    "France",
	"emirates":  "Emirates",
}

// NewFlightAPIStep fetches live flights and then stably moves offers from
// preferred airlines to the front. Preferences come from the injected
// store, merged with whatever the state already carries.
func NewFlightAPIStep(flights FlightSearcher, prefs PreferenceStore, userID string) graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		origin := s.OriginID
		if origin == "" {
			origin = s.Origin
		}
		destination := s.DestinationID
		if destination == "" {
			destination = s.Destination
		}
		logx.Info().Str("origin", origin).Str("destination", destination).Msg("searching flights")

		found, err := flights.SearchFlights(ctx, FlightQuery{
			Origin:      origin,
			Destination: destination,
			StartDate:   s.StartDate,
			EndDate:     s.EndDate,
		})
		if err != nil {
			logx.Warn().Err(err).Msg("flight search failed")
			found = nil
		}
		if found == nil {
			found = []trip.FlightOffer{}
		}

		if len(found) > 0 {
			if keywords := preferredAirlines(ctx, prefs, userID, s.UserPreferences); len(keywords) > 0 {
				logx.Info().Strs("airlines", keywords).Msg("reordering for preferred airlines")
				sortPreferredFirst(found, keywords)
			}
		}

		if len(found) == 0 {
			logx.Warn().Msg("no flights found")
		} else {
			logx.Info().Int("count", len(found)).Msg("flights found")
		}
		return trip.Update{Flights: found}, nil
	}
}

// preferredAirlines extracts airline keywords from the user's stored and
// in-state preference strings. Store failures just mean fewer keywords.
func preferredAirlines(ctx context.Context, prefs PreferenceStore, userID string, statePrefs []string) []string {
	all := append([]string{}, statePrefs...)
	if prefs != nil && userID != "" {
		stored, err := prefs.List(ctx, userID)
		if err != nil {
			logx.Warn().Err(err).Str("user_id", userID).Msg("preference lookup failed")
		} else {
			all = append(all, stored...)
		}
	}

	seen := map[string]bool{}
	var keywords []string
	for _, p := range all {
		lower := strings.ToLower(p)
		for needle, airline := range airlineKeywords {
			if strings.Contains(lower, needle) && !seen[airline] {
				seen[airline] = true
				keywords = append(keywords, airline)
			}
		}
	}
	sort.Strings(keywords)
	return keywords
}

func sortPreferredFirst(offers []trip.FlightOffer, keywords []string) {
	matches := func(o trip.FlightOffer) bool {
		airline := strings.ToLower(o.Airline)
		for _, k := range keywords {
			if strings.Contains(airline, strings.ToLower(k)) {
				return true
			}
		}
		return false
	}
	sort.SliceStable(offers, func(i, j int) bool {
		return matches(offers[i]) && !matches(offers[j])
	})
}
