package steps

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
)

// maxRecommendations bounds both ranked result lists.
const maxRecommendations = 5

// missingPriceSentinel makes flights without a usable price sort last.
const missingPriceSentinel = 9_999_999.0

// NewRecommendFlightsStep ranks flights by ascending price and keeps the
// five cheapest. A missing price sorts last. The sort is stable so equal
// prices keep their input order.
func NewRecommendFlightsStep() graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		ranked := append([]trip.FlightOffer{}, s.Flights...)

		price := func(f trip.FlightOffer) float64 {
			if f.Price == nil {
				return missingPriceSentinel
			}
			return *f.Price
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return price(ranked[i]) < price(ranked[j])
		})

		if len(ranked) > maxRecommendations {
			ranked = ranked[:maxRecommendations]
		}
		return trip.Update{Flights: ranked}, nil
	}
}

// NewRecommendHotelsStep ranks accommodations by rating (desc) then price
// (asc) and keeps the top five, replacing each pick's link with a
// deterministic search URL built from name, city and country.
//
// A missing rating or price defaults to 0, which means an unpriced hotel
// ranks as the cheapest at its rating. That quirk is long-standing planner
// behavior and is preserved on purpose.
func NewRecommendHotelsStep() graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		ranked := append([]trip.HotelOffer{}, s.Accommodations...)

		rating := func(h trip.HotelOffer) float64 {
			if h.Rating == nil {
				return 0
			}
			return *h.Rating
		}
		price := func(h trip.HotelOffer) float64 {
			if h.Price == nil {
				return 0
			}
			return *h.Price
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			if rating(ranked[i]) != rating(ranked[j]) {
				return rating(ranked[i]) > rating(ranked[j])
			}
			return price(ranked[i]) < price(ranked[j])
		})

		if len(ranked) > maxRecommendations {
			ranked = ranked[:maxRecommendations]
		}

		for i := range ranked {
			city := ranked[i].City
			if city == "" {
				city = s.Destination
			}
			ranked[i].URL = hotelSearchURL(ranked[i].Name, city, ranked[i].Country)
		}

		return trip.Update{RecommendedHotels: ranked}, nil
	}
}

// hotelSearchURL rebuilds a clickable search-engine link for a hotel.
func hotelSearchURL(name, city, country string) string {
	parts := []string{name}
	if city != "" {
		parts = append(parts, city)
	}
	if country != "" {
		parts = append(parts, country)
	}
	q := url.QueryEscape(strings.Join(parts, " "))
	return "https://www.google.com/search?q=" + q
}
