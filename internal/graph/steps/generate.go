package steps

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// Fallback texts when the generation capability fails.
const (
	fallbackTripNote  = "Trip generated successfully."
	fallbackItinerary = "Could not generate itinerary at this time."
)

// NewReasoningStep asks the generator for a short qualitative note about
// the assembled trip.
func NewReasoningStep(gen Generator) graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		note, err := gen.GenerateTripNote(ctx, s)
		if err != nil {
			logx.Error().Err(err).Msg("trip note generation failed")
			return trip.Update{TripAnalysis: trip.String(fallbackTripNote)}, nil
		}
		logx.Debug().Str("note", note).Msg("trip note generated")
		return trip.Update{TripAnalysis: trip.String(note)}, nil
	}
}

// NewItineraryStep drafts the day-by-day itinerary and appends it to the
// conversation history so checkpoint continuation sees the full exchange.
func NewItineraryStep(gen Generator) graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		logx.Info().Str("destination", s.Destination).Msg("generating itinerary")

		text, err := gen.GenerateItinerary(ctx, s)
		if err != nil {
			logx.Error().Err(err).Msg("itinerary generation failed")
			text = fallbackItinerary
		}

		return trip.Update{
			Itinerary: trip.String(text),
			Messages:  []*schema.Message{schema.AssistantMessage(text, nil)},
		}, nil
	}
}
