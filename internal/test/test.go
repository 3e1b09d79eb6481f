// Package test contains helpers for testing the device control plane.
package test

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-device-classb/internal/config"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

// GetConfig returns the test configuration.
func GetConfig() config.Config {
	var c config.Config

	c.General.LogLevel = 2

	c.Device.Region = "EU868"
	c.Device.Activation = "otaa"
	c.Device.BeaconStrategy = "device_time"
	c.Device.PingSlotPeriodicity = 0
	c.Device.AppPort = 3
	c.Device.Confirmed = false
	c.Device.DataRate = 0
	c.Device.ADR = true
	c.Device.PublicNetwork = true
	c.Device.TxInterval = 30 * time.Second
	c.Device.TxIntervalRand = 5 * time.Second
	c.Device.MaxRxError = 20

	c.Storage.Backend = "file"
	c.Storage.File.Path = "device-test.ctx"

	return c
}
