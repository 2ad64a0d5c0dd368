package steps

import (
	"context"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// NewWeatherStep fetches the destination forecast. Adapter failures degrade
// to a fixed "unavailable" summary; the run continues.
func NewWeatherStep(svc WeatherService) graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		summary, info, err := svc.Forecast(ctx, s.DestinationQuery())
		if err != nil {
			logx.Warn().Err(err).Str("destination", s.DestinationQuery()).Msg("weather lookup failed")
			return trip.Update{WeatherSummary: trip.String("Weather unavailable.")}, nil
		}
		return trip.Update{
			WeatherSummary: trip.String(summary),
			WeatherInfo:    info,
		}, nil
	}
}
