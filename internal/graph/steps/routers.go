package steps

import (
	"github.com/voyago-poc/server/internal/trip"
)

// RouteCache picks the branch after the cache step. A hit requires BOTH a
// non-empty flight list and a non-empty accommodation list; any partial
// match re-fetches.
func RouteCache(s *trip.TripState) string {
	if len(s.Flights) > 0 && len(s.Accommodations) > 0 {
		return StepRecommendHotels
	}
	return StepLiveSearch
}

// ShouldCorrect decides whether the live-search results warrant the bounded
// correction cycle: either list empty and the single retry not yet spent.
func ShouldCorrect(s *trip.TripState) string {
	if (len(s.Flights) == 0 || len(s.Accommodations) == 0) && s.RetryCount < 1 {
		return StepCorrection
	}
	return StepStore
}
