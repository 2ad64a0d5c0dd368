package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voyago-poc/server/internal/trip"
)

func stateWith(flights, hotels int, retries int) *trip.TripState {
	s := trip.NewState()
	for i := 0; i < flights; i++ {
		s.Flights = append(s.Flights, trip.FlightOffer{Airline: "AA"})
	}
	for i := 0; i < hotels; i++ {
		s.Accommodations = append(s.Accommodations, trip.HotelOffer{Name: "Hotel"})
	}
	s.RetryCount = retries
	return s
}

func TestRouteCache(t *testing.T) {
	tests := []struct {
		name    string
		flights int
		hotels  int
		want    string
	}{
		{"both present is a hit", 2, 3, StepRecommendHotels},
		{"flights only refetches", 2, 0, StepLiveSearch},
		{"hotels only refetches", 0, 3, StepLiveSearch},
		{"both empty refetches", 0, 0, StepLiveSearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteCache(stateWith(tt.flights, tt.hotels, 0)))
		})
	}
}

func TestShouldCorrect(t *testing.T) {
	tests := []struct {
		name    string
		flights int
		hotels  int
		retries int
		want    string
	}{
		{"both found proceeds", 2, 3, 0, StepStore},
		{"no flights corrects", 0, 3, 0, StepCorrection},
		{"no hotels corrects", 2, 0, 0, StepCorrection},
		{"both empty corrects", 0, 0, 0, StepCorrection},
		{"retry budget spent proceeds even when empty", 0, 0, 1, StepStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldCorrect(stateWith(tt.flights, tt.hotels, tt.retries)))
		})
	}
}
