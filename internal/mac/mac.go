// Package mac defines the boundary to the LoRaWAN MAC engine: the
// MLME / MCPS service request primitives, the asynchronous confirmation
// and indication events and the management-information-base accessors
// the device control plane depends on. The engine itself (frame codec,
// retransmissions, channel plans, crypto, radio driver) lives behind
// this interface.
package mac

import (
	"github.com/brocaar/lorawan"
)

// Class defines the end-device class.
type Class int

// Available device classes.
const (
	ClassA Class = iota
	ClassB
	ClassC
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case ClassA:
		return "A"
	case ClassB:
		return "B"
	case ClassC:
		return "C"
	default:
		return "?"
	}
}

// Activation defines the network-activation type.
type Activation int

// Available activation types.
const (
	ActivationNone Activation = iota
	ActivationABP
	ActivationOTAA
)

// String implements fmt.Stringer.
func (a Activation) String() string {
	switch a {
	case ActivationNone:
		return "none"
	case ActivationABP:
		return "ABP"
	case ActivationOTAA:
		return "OTAA"
	default:
		return "unknown"
	}
}

// Handler defines the callback surface the MAC engine invokes for
// asynchronous events. Handlers must not block; they may only mutate
// device state and signal the main loop.
type Handler interface {
	HandleMcpsConfirm(conf McpsConfirm)
	HandleMcpsIndication(ind McpsIndication)
	HandleMlmeConfirm(conf MlmeConfirm)
	HandleMlmeIndication(ind MlmeIndication)
}

// Mac defines the MAC engine interface.
type Mac interface {
	// Start starts the engine. The control plane treats a start
	// failure as fatal.
	Start() error

	// Process advances the engine's internal processing. It must be
	// called from the main loop whenever the process-notify callback
	// has fired.
	Process()

	// SetHandler registers the asynchronous event handler.
	SetHandler(h Handler)

	// SetProcessNotify registers the processing-needed notification,
	// invoked by the engine whenever Process must be called.
	SetProcessNotify(f func())

	// MlmeRequest issues a MAC management service request. At most one
	// request per type is outstanding at any time.
	MlmeRequest(req MlmeRequest) MlmeResponse

	// McpsRequest issues an uplink transmission request.
	McpsRequest(req McpsRequest) McpsResponse

	// QueryTxPossible verifies that an application payload of the given
	// size fits the current data-rate.
	QueryTxPossible(size int) Status

	// MIB accessors.
	DeviceClass() Class
	SetDeviceClass(c Class) Status
	NetworkActivation() Activation
	SetNetworkActivation(a Activation) Status
	DevEUI() lorawan.EUI64
	JoinEUI() lorawan.EUI64
	SePin() [4]byte
	DevAddr() lorawan.DevAddr
	SetDevAddr(addr lorawan.DevAddr) Status
	SetNetID(netID lorawan.NetID) Status
	SetADR(enable bool) Status
	SetPublicNetwork(enable bool) Status
	SetSystemMaxRxError(ms int) Status
	ChannelsDataRate() int
	ChannelFrequency(channel int) uint32
	ChannelMask() []uint16

	// SetDutyCycle enables or disables duty-cycle enforcement. Lifting
	// the enforcement is reserved for certification testing in
	// duty-cycle regulated regions.
	SetDutyCycle(enable bool)

	// Context exports the engine's activation context for persistence;
	// SetContext restores a previously exported context.
	Context() ([]byte, error)
	SetContext(b []byte) error
}
