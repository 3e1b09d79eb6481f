package device

// Readings provides the board inputs reported in the default telemetry
// payload.
type Readings interface {
	// SensorLevel returns the current sensor reading in percent (0-100).
	SensorLevel() uint8

	// BatteryVoltage returns the current supply voltage in mV.
	BatteryVoltage() uint16
}

// staticReadings reports fixed values, used when no board is attached.
type staticReadings struct{}

func (staticReadings) SensorLevel() uint8 {
	return 50
}

func (staticReadings) BatteryVoltage() uint16 {
	return 3300
}
