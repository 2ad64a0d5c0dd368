package llm

import (
	"fmt"
	"strings"

	"github.com/voyago-poc/server/internal/trip"
)

const itinerarySystemPrompt = "You are an expert travel agent. Create a detailed, engaging day-by-day itinerary."

const itineraryUserTemplate = `Create an itinerary for a trip to %s from %s.
Dates: %s to %s.

Trip Context:
- Purpose: %s
- Travelers: %s
- Budget: %s

Using these options found:
Hotels:
%s

Flights:
%s

The itinerary should include:
1. Arrival and check-in.
2. Daily activities (mix of sightseeing, food, relaxation) tailored to the trip purpose (e.g., if work, ensure wifi/cafes; if vacation, focus on fun) and party type.
3. Departure details.

Keep it structured and fun!`

func renderItineraryPrompt(s *trip.TripState) string {
	var hotels []string
	for _, h := range s.Accommodations {
		if len(hotels) == 3 {
			break
		}
		price := "N/A"
		if h.Price != nil {
			price = fmt.Sprintf("%.0f", *h.Price)
		}
		hotels = append(hotels, fmt.Sprintf("- %s in %s ($%s/night)", h.Name, h.City, price))
	}

	var flights []string
	for _, f := range s.Flights {
		if len(flights) == 2 {
			break
		}
		price := "N/A"
		if f.Price != nil {
			price = fmt.Sprintf("%.0f", *f.Price)
		}
		flights = append(flights, fmt.Sprintf("- %s ($%s)", f.Airline, price))
	}

	budget := "Flexible"
	if s.Budget > 0 {
		budget = fmt.Sprintf("$%g", s.Budget)
	}

	return fmt.Sprintf(itineraryUserTemplate,
		s.Destination, s.Origin, s.StartDate, s.EndDate,
		s.TripPurpose, s.TravelParty, budget,
		strings.Join(hotels, "\n"), strings.Join(flights, "\n"))
}

const tripNoteTemplate = `You are a Helpful Travel Assistant Reviewer.

Task: Review the planned trip and provide a short, helpful "Agent Note" for the user.

Trip Data:
- Destination: %s
- Flights Found: %d
- Hotels Found: %d
- Budget Issues: %s
- Weather: %s

Instructions:
1. Summarize the "vibe" of the options found.
2. Point out any compromises (e.g., "Flights represent good value but have layovers").
3. Highlight weather warnings if any.
4. Keep it conversational and under 3 sentences.`

func renderTripNotePrompt(s *trip.TripState) string {
	issues := "None"
	if len(s.ConstraintViolations) > 0 {
		issues = strings.Join(s.ConstraintViolations, ", ")
	}
	weather := s.WeatherSummary
	if weather == "" {
		weather = "Unknown"
	}
	return fmt.Sprintf(tripNoteTemplate,
		s.Destination, len(s.Flights), len(s.Accommodations), issues, weather)
}

const modifierTemplate = `You are a Travel State Modifier. Your goal is to interpret user feedback and update the travel parameters.

Current State:
%s

User Feedback:
%s

Instructions:
1. Identify what the user wants to change.
2. Map it to these JSON fields: max_price_per_night (number), min_rating (number), travel_pace (string), interests (string), trip_purpose (string), bedrooms (number), new_preference (string), rerun_hotels (boolean), rerun_itinerary (boolean).
3. Set rerun_hotels to true if price, rating, or bedrooms change.
4. Set rerun_itinerary to true if pace, interests, or purpose change.
5. If the user expresses a general preference, extract it into new_preference using a structured format like "Category: [Value]".
   - Example: "Airline: Delta Only"
   - Example: "Hotel: No Hostels"
   - Example: "Food: Vegetarian options required"

Return only the JSON object, with no markdown fences and no commentary.`

func renderModifierPrompt(s *trip.TripState, feedback string) string {
	summary := fmt.Sprintf(
		`{"max_price": %g, "min_rating": %g, "bedrooms": %d, "pace": %q, "interests": %q, "purpose": %q}`,
		s.MaxPricePerNight, s.MinRating, s.Bedrooms, s.TravelPace, s.Interests, s.TripPurpose)
	return fmt.Sprintf(modifierTemplate, summary, feedback)
}
