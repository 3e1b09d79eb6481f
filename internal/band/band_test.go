package band

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brocaar/chirpstack-device-classb/internal/config"
)

func TestSetup(t *testing.T) {
	var c config.Config

	c.Device.Region = "EU868"
	require.NoError(t, Setup(c))
	assert.Equal(t, EU868, Region())

	c.Device.Region = "EU867"
	assert.Error(t, Setup(c))
}

func TestDutyCycleRegulated(t *testing.T) {
	assert.True(t, DutyCycleRegulated(EU868))
	assert.True(t, DutyCycleRegulated(RU864))
	assert.False(t, DutyCycleRegulated(US915))
	assert.False(t, DutyCycleRegulated(AU915))
}
