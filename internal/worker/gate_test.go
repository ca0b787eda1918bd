package worker

import (
	"context"
	"testing"

	"github.com/routecraft/anchor/internal/graph"
	"github.com/routecraft/anchor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConnectivity(t *testing.T) {
	ctx := context.Background()
	mustLocation := func(t *testing.T, lat, lon float64) models.Location {
		t.Helper()
		loc, err := models.NewLocation(lat, lon)
		require.NoError(t, err)
		return loc
	}
	nearby := []models.Location{
		mustLocation(t, 40.751158, -74.000816),
		mustLocation(t, 40.74941, -73.99681),
		mustLocation(t, 40.748, -73.99),
	}

	t.Run("connected nearby locations pass", func(t *testing.T) {
		reader := &fakeReader{hierarchy: graph.DefaultHierarchy(), connected: true}

		err := CheckConnectivity(ctx, discardLogger(), nearby, reader, 5_000_000)

		require.NoError(t, err)
		assert.Equal(t, 2, reader.connectedCalls, "one check per adjacent pair")
	})

	t.Run("disconnected pair short-circuits", func(t *testing.T) {
		reader := &fakeReader{hierarchy: graph.DefaultHierarchy(), connected: false}

		err := CheckConnectivity(ctx, discardLogger(), nearby, reader, 5_000_000)

		assert.ErrorIs(t, err, ErrUnreachable)
		assert.Equal(t, 1, reader.connectedCalls, "later pairs are never checked")
	})

	t.Run("pair beyond the distance limit", func(t *testing.T) {
		reader := &fakeReader{hierarchy: graph.DefaultHierarchy(), connected: true}
		far := []models.Location{
			mustLocation(t, 40.75, -74.0),
			mustLocation(t, 40.85, -74.0), // about 11km north
		}

		err := CheckConnectivity(ctx, discardLogger(), far, reader, 10_000)

		assert.ErrorIs(t, err, ErrDistanceExceeded)
	})

	t.Run("single location has no pairs", func(t *testing.T) {
		reader := &fakeReader{hierarchy: graph.DefaultHierarchy(), connected: false}

		err := CheckConnectivity(ctx, discardLogger(), nearby[:1], reader, 1)

		require.NoError(t, err)
		assert.Zero(t, reader.connectedCalls)
	})
}
