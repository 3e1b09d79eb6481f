package mac

import (
	"time"
)

// McpsType defines the MCPS (MAC data) request / indication type.
type McpsType int

// Available MCPS types.
const (
	McpsUnconfirmed McpsType = iota
	McpsConfirmed
	McpsProprietary
	McpsMulticast
)

// String implements fmt.Stringer.
func (t McpsType) String() string {
	switch t {
	case McpsUnconfirmed:
		return "MCPS_UNCONFIRMED"
	case McpsConfirmed:
		return "MCPS_CONFIRMED"
	case McpsProprietary:
		return "MCPS_PROPRIETARY"
	case McpsMulticast:
		return "MCPS_MULTICAST"
	default:
		return "MCPS_UNKNOWN"
	}
}

// RxSlot defines the receive window in which a downlink was received.
type RxSlot int

// Available receive windows.
const (
	RxSlot1 RxSlot = iota
	RxSlot2
	RxSlotC
	RxSlotCMulticast
	RxSlotBPing
	RxSlotBMulticastPing
)

// String implements fmt.Stringer.
func (s RxSlot) String() string {
	switch s {
	case RxSlot1:
		return "1"
	case RxSlot2:
		return "2"
	case RxSlotC:
		return "C"
	case RxSlotCMulticast:
		return "C Multicast"
	case RxSlotBPing:
		return "B Ping-Slot"
	case RxSlotBMulticastPing:
		return "B Multicast Ping-Slot"
	default:
		return "Unknown"
	}
}

// McpsRequest defines an uplink transmission request.
type McpsRequest struct {
	Type McpsType

	// Port defines the application port (FPort). Ignored for a
	// zero-length flush frame.
	Port uint8

	// Data holds the application payload. A nil / empty payload submits
	// an empty frame, flushing any queued MAC commands.
	Data []byte

	// DataRate defines the transmission data-rate.
	DataRate int

	// NbTrials defines the number of transmission trials for a
	// confirmed frame.
	NbTrials uint8
}

// McpsResponse defines the synchronous outcome of an MCPS request.
type McpsResponse struct {
	Status Status

	// DutyCycleWait holds the advertised wait time in case the request
	// was rejected with StatusDutyCycleRestricted.
	DutyCycleWait time.Duration
}

// McpsConfirm defines the asynchronous confirmation of a previously
// accepted uplink transmission.
type McpsConfirm struct {
	Type          McpsType
	Status        EventInfoStatus
	UplinkCounter uint32
	DataRate      int
	TxPower       int
	Channel       int
	AckReceived   bool
}

// McpsIndication defines an inbound downlink event.
type McpsIndication struct {
	Type   McpsType
	Status EventInfoStatus

	Port            uint8
	Data            []byte
	RxData          bool
	FramePending    bool
	DownlinkCounter uint32
	RxSlot          RxSlot
	RSSI            int16
	SNR             int8
	DataRate        int
	Multicast       bool
}
