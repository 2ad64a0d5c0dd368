package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrection_FlightFailure(t *testing.T) {
	s := stateWith(0, 3, 0)

	u, err := NewCorrectionStep()(context.Background(), s)
	require.NoError(t, err)

	require.NotNil(t, u.RetryCount)
	assert.Equal(t, 1, *u.RetryCount)
	require.NotNil(t, u.LastError)
	assert.Equal(t, "No flights found initially.", *u.LastError)
	require.NotNil(t, u.TripAnalysis)
	assert.Contains(t, *u.TripAnalysis, "Retrying with broader search")
	assert.Nil(t, u.MinRating, "flight failure does not touch the rating constraint")
}

func TestCorrection_HotelFailureRelaxesRating(t *testing.T) {
	s := stateWith(2, 0, 0)
	s.MinRating = 4.5

	u, err := NewCorrectionStep()(context.Background(), s)
	require.NoError(t, err)

	require.NotNil(t, u.RetryCount)
	assert.Equal(t, 1, *u.RetryCount)
	require.NotNil(t, u.LastError)
	assert.Equal(t, "No hotels found initially.", *u.LastError)
	require.NotNil(t, u.MinRating)
	assert.Equal(t, 3.0, *u.MinRating)
}

func TestCorrection_LowRatingNotRaised(t *testing.T) {
	s := stateWith(2, 0, 0)
	s.MinRating = 2.5

	u, err := NewCorrectionStep()(context.Background(), s)
	require.NoError(t, err)

	assert.Nil(t, u.MinRating, "a rating already below the floor stays put")
}

func TestCorrection_BothFailuresHotelErrorWins(t *testing.T) {
	s := stateWith(0, 0, 0)
	s.MinRating = 4.0

	u, err := NewCorrectionStep()(context.Background(), s)
	require.NoError(t, err)

	require.NotNil(t, u.LastError)
	assert.Equal(t, "No hotels found initially.", *u.LastError)
	require.NotNil(t, u.TripAnalysis, "flight note is still recorded")
	require.NotNil(t, u.MinRating)
	assert.Equal(t, 3.0, *u.MinRating)
}

func TestCorrection_NoOpAtRetryCap(t *testing.T) {
	s := stateWith(0, 0, 1)

	u, err := NewCorrectionStep()(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, u.IsZero(), "re-entering the correction at the cap must change nothing")
}

func TestCorrection_NoOpWhenResultsExist(t *testing.T) {
	s := stateWith(2, 3, 0)

	u, err := NewCorrectionStep()(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, u.IsZero())
}
