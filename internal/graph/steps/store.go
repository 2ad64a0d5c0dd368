package steps

import (
	"context"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// NewStoreStep persists the search results so a later identical request can
// short-circuit. Persistence failures are logged and swallowed; the
// in-flight response is never affected.
func NewStoreStep(store TripStore) graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		id, err := store.SaveTripPlan(ctx, s)
		if err != nil {
			logx.Error().Err(err).Str("destination", s.Destination).Msg("failed to save trip plan")
			return trip.Update{}, nil
		}
		logx.Info().Int64("trip_id", id).Str("destination", s.Destination).Msg("trip plan saved")
		return trip.Update{}, nil
	}
}
