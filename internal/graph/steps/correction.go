package steps

import (
	"context"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// relaxedMinRating is the floor the hotel rating constraint is dropped to
// when the first search comes back empty.
const relaxedMinRating = 3.0

// NewCorrectionStep analyses an empty search result and adjusts parameters
// for the single permitted retry. Once retry_count has reached the cap the
// step is a no-op, so re-entering it can never loop.
func NewCorrectionStep() graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		flightsFailed := len(s.Flights) == 0 && s.RetryCount < 1
		hotelsFailed := len(s.Accommodations) == 0 && s.RetryCount < 1

		if !flightsFailed && !hotelsFailed {
			return trip.Update{}, nil
		}

		u := trip.Update{RetryCount: trip.Int(s.RetryCount + 1)}

		if flightsFailed {
			logx.Info().Msg("correction: flight search returned nothing")
			u.LastError = trip.String("No flights found initially.")
			u.TripAnalysis = trip.String("Note: Original flight search returned no results. Retrying with broader search.")
		}

		if hotelsFailed {
			logx.Info().Msg("correction: hotel search returned nothing")
			u.LastError = trip.String("No hotels found initially.")
			if s.MinRating > relaxedMinRating {
				logx.Info().Float64("min_rating", relaxedMinRating).Msg("correction: relaxing rating constraint")
				u.MinRating = trip.Float(relaxedMinRating)
			}
		}

		return u, nil
	}
}
