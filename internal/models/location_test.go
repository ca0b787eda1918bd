package models_test

import (
	"testing"

	"github.com/routecraft/anchor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation(t *testing.T) {
	t.Run("valid coordinates", func(t *testing.T) {
		loc, err := models.NewLocation(50.45, 30.52)

		require.NoError(t, err)
		assert.InDelta(t, 50.45, loc.Lat, 1e-9)
		assert.InDelta(t, 30.52, loc.Lon, 1e-9)
		assert.Equal(t, models.StopTypeBreak, loc.Type)
	})

	t.Run("poles and antimeridian are valid", func(t *testing.T) {
		_, err := models.NewLocation(90, 180)
		require.NoError(t, err)

		_, err = models.NewLocation(-90, -180)
		require.NoError(t, err)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		_, err := models.NewLocation(90.1, 0)
		require.ErrorIs(t, err, models.ErrMalformedLocation)
	})

	t.Run("longitude out of range", func(t *testing.T) {
		_, err := models.NewLocation(0, -180.1)
		require.ErrorIs(t, err, models.ErrMalformedLocation)
	})
}

func TestLocationFromCSV(t *testing.T) {
	t.Run("lat lon order", func(t *testing.T) {
		loc, err := models.LocationFromCSV("40.748441,-73.985664")

		require.NoError(t, err)
		assert.InDelta(t, 40.748441, loc.Lat, 1e-9)
		assert.InDelta(t, -73.985664, loc.Lon, 1e-9)
	})

	t.Run("whitespace tolerated", func(t *testing.T) {
		loc, err := models.LocationFromCSV(" 1.5 , 2.5 ")

		require.NoError(t, err)
		assert.InDelta(t, 1.5, loc.Lat, 1e-9)
		assert.InDelta(t, 2.5, loc.Lon, 1e-9)
	})

	t.Run("wrong field count", func(t *testing.T) {
		_, err := models.LocationFromCSV("1.5")
		require.ErrorIs(t, err, models.ErrMalformedLocation)

		_, err = models.LocationFromCSV("1.5,2.5,3.5")
		require.ErrorIs(t, err, models.ErrMalformedLocation)
	})

	t.Run("non numeric", func(t *testing.T) {
		_, err := models.LocationFromCSV("north,west")
		require.ErrorIs(t, err, models.ErrMalformedLocation)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := models.LocationFromCSV("91,0")
		require.ErrorIs(t, err, models.ErrMalformedLocation)
	})
}
