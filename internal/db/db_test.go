package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/daysync/internal/config"
	"github.com/yourorg/daysync/internal/models"
)

func TestDSN(t *testing.T) {
	got := DSN(config.DatabaseConfig{User: "daysync", Pass: "secret", Name: "transit"})
	assert.Equal(t, "daysync:secret@tcp(127.0.0.1:3306)/transit?parseTime=true&charset=utf8mb4,utf8", got)

	got = DSN(config.DatabaseConfig{User: "u", Host: "db", Port: "3307", Name: "n"})
	assert.Contains(t, got, "@tcp(db:3307)/n?")
}

func TestItinerariesPayload(t *testing.T) {
	payload, err := encodeItineraries(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))

	its := []models.Itinerary{{Mode: models.ModeTransit, LineNumber: "502", TotalMinutes: 17}}
	payload, err = encodeItineraries(its)
	require.NoError(t, err)

	decoded, err := decodeItineraries(payload)
	require.NoError(t, err)
	assert.Equal(t, its, decoded)

	decoded, err = decodeItineraries(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)

	_, err = decodeItineraries([]byte("{"))
	assert.Error(t, err)
}
