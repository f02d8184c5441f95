package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
)

func testDataset() *domain.Dataset {
	return &domain.Dataset{
		LoadID:    "0b7c2a52-4f0e-4c7e-9d38-3f4a1d0c9e11",
		FetchedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	ds := testDataset()
	s := domain.Sighting{
		ID:        "42",
		Timestamp: time.Date(2024, 4, 25, 9, 0, 0, 0, time.UTC),
		Position:  domain.Coordinate{Lat: 51.5, Lng: -0.12},
		Behavior:  domain.Behavior{Walking: domain.True, Running: domain.False},
		Attributes: domain.Attributes{
			ObservationType: "Incidental",
			CatCount:        "2",
			ObserverEmail:   "private@example.com",
		},
		OriginalRow: domain.RawRow{"42", "4/25/2024 09:00:00"},
	}

	msg, err := serializeToMessage(ds, s)
	require.NoError(t, err)

	assert.Equal(t, []byte("42"), msg.Key)
	assert.Equal(t, ds.FetchedAt, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "load_id", msg.Headers[0].Key)
	assert.Equal(t, []byte(ds.LoadID), msg.Headers[0].Value)
	assert.Equal(t, "fetched_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[1].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "42", decoded["id"])
	assert.Equal(t, ds.LoadID, decoded["load_id"])
	assert.Equal(t, map[string]any{"lat": 51.5, "lng": -0.12}, decoded["position"])

	behavior := decoded["behavior"].(map[string]any)
	assert.Equal(t, true, behavior["walking"])
	assert.Equal(t, false, behavior["running"])
	assert.Nil(t, behavior["clipped_ear"])

	assert.NotContains(t, string(msg.Value), "private@example.com")
	assert.NotContains(t, string(msg.Value), "4/25/2024")
}

func TestSerializeToMessage_InvalidPosition(t *testing.T) {
	msg, err := serializeToMessage(testDataset(), domain.Sighting{ID: "7", Position: domain.InvalidCoordinate()})
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"position":null`)
}
