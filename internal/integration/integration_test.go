package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brocaar/chirpstack-device-classb/internal/config"
	"github.com/brocaar/lorawan"
)

func TestSetup(t *testing.T) {
	var c config.Config

	// without an MQTT server the log publisher is used
	p, err := Setup(c)
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)
	assert.NoError(t, p.Publish(NewEvent(lorawan.EUI64{}, EventStatus)))
	assert.NoError(t, p.Close())
}

func TestNewEvent(t *testing.T) {
	assert := require.New(t)

	devEUI := lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8}
	event := NewEvent(devEUI, EventUp)

	assert.Equal(devEUI, event.DevEUI)
	assert.Equal(EventUp, event.Type)
	assert.NotEqual(event.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.False(event.Time.IsZero())
}
