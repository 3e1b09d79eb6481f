package band

import (
	"github.com/pkg/errors"

	"github.com/brocaar/chirpstack-device-classb/internal/config"
)

// Name defines the region name type.
type Name string

// Supported region names.
const (
	AS923 Name = "AS923"
	AU915 Name = "AU915"
	CN470 Name = "CN470"
	CN779 Name = "CN779"
	EU433 Name = "EU433"
	EU868 Name = "EU868"
	IN865 Name = "IN865"
	KR920 Name = "KR920"
	RU864 Name = "RU864"
	US915 Name = "US915"
)

var names = map[Name]struct{}{
	AS923: {}, AU915: {}, CN470: {}, CN779: {}, EU433: {},
	EU868: {}, IN865: {}, KR920: {}, RU864: {}, US915: {},
}

// Regions mandating duty-cycled transmissions. For these regions the
// compliance-test engine may temporarily lift the duty-cycle enforcement
// and must restore it on test exit.
var dutyCycleRegulated = map[Name]struct{}{
	EU868: {},
	RU864: {},
	CN779: {},
	EU433: {},
}

var name Name

// Setup validates and stores the configured region.
func Setup(c config.Config) error {
	n := Name(c.Device.Region)
	if _, ok := names[n]; !ok {
		return errors.Errorf("unknown region: %s", c.Device.Region)
	}
	name = n
	return nil
}

// Region returns the configured region name.
func Region() Name {
	return name
}

// DutyCycleRegulated returns true when the given region mandates
// duty-cycled transmissions.
func DutyCycleRegulated(n Name) bool {
	_, ok := dutyCycleRegulated[n]
	return ok
}
