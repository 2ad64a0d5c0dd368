package steps

import (
	"context"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// NewCacheStep looks up previously stored flights and accommodations for the
// requested route. It populates the state only on a full hit (both lists
// non-empty); a partial match or a store failure leaves the state untouched
// so routing falls through to the live search.
func NewCacheStep(store TripStore) graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		flights, hotels, err := store.FindCachedRoute(ctx, s.Origin, s.Destination)
		if err != nil {
			logx.Warn().Err(err).
				Str("origin", s.Origin).
				Str("destination", s.Destination).
				Msg("route cache lookup failed")
			return trip.Update{}, nil
		}

		if len(flights) > 0 && len(hotels) > 0 {
			logx.Info().
				Int("flights", len(flights)).
				Int("hotels", len(hotels)).
				Msg("route cache hit")
			return trip.Update{Flights: flights, Accommodations: hotels}, nil
		}

		return trip.Update{}, nil
	}
}
