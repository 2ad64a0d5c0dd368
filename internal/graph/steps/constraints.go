package steps

import (
	"context"
	"fmt"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// Cost estimation constants: up to three offers are sampled per list and a
// fixed stay length is assumed.
const (
	constraintSampleSize = 3
	assumedStayNights    = 5
)

// NewConstraintsStep estimates the trip cost against the budget ceiling and
// records a violation message when the estimate exceeds it. Advisory only;
// nothing downstream is blocked.
func NewConstraintsStep() graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		violations := []string{}

		if s.Budget > 0 {
			total := 0.0

			var flightPrices []float64
			for _, f := range head(s.Flights, constraintSampleSize) {
				if f.Price != nil && *f.Price > 0 {
					flightPrices = append(flightPrices, *f.Price)
				}
			}
			if len(flightPrices) > 0 {
				total += mean(flightPrices)
			}

			var nightlyRates []float64
			for _, h := range head(s.Accommodations, constraintSampleSize) {
				rate := 0.0
				if h.Price != nil {
					rate = *h.Price
				}
				nightlyRates = append(nightlyRates, rate)
			}
			if len(nightlyRates) > 0 {
				total += mean(nightlyRates) * assumedStayNights
			}

			if total > s.Budget {
				violations = append(violations,
					fmt.Sprintf("Estimated cost ($%.0f) exceeds budget ($%g)", total, s.Budget))
			}
		}

		if len(violations) > 0 {
			logx.Warn().Strs("violations", violations).Msg("trip constraints violated")
		}

		return trip.Update{ConstraintViolations: violations}, nil
	}
}

func mean(vs []float64) float64 {
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
