package mac

import (
	"time"
)

// MlmeType defines the MLME (MAC management) request type.
type MlmeType int

// Available MLME request types.
const (
	MlmeJoin MlmeType = iota
	MlmeLinkCheck
	MlmeDeviceTime
	MlmeBeaconTiming
	MlmeBeaconAcquisition
	MlmePingSlotInfo
	MlmeTxCw
	MlmeTxCw1
)

// String implements fmt.Stringer.
func (t MlmeType) String() string {
	switch t {
	case MlmeJoin:
		return "MLME_JOIN"
	case MlmeLinkCheck:
		return "MLME_LINK_CHECK"
	case MlmeDeviceTime:
		return "MLME_DEVICE_TIME"
	case MlmeBeaconTiming:
		return "MLME_BEACON_TIMING"
	case MlmeBeaconAcquisition:
		return "MLME_BEACON_ACQUISITION"
	case MlmePingSlotInfo:
		return "MLME_PING_SLOT_INFO"
	case MlmeTxCw:
		return "MLME_TXCW"
	case MlmeTxCw1:
		return "MLME_TXCW1"
	default:
		return "MLME_UNKNOWN"
	}
}

// TxCwParams holds the parameters of a continuous-wave transmission request.
type TxCwParams struct {
	// Timeout in seconds.
	Timeout uint16

	// Frequency in Hz (MlmeTxCw1 only).
	Frequency uint32

	// Power in dBm (MlmeTxCw1 only).
	Power uint8
}

// MlmeRequest defines an MLME service request. Only the fields relevant
// for the request type need to be set.
type MlmeRequest struct {
	Type MlmeType

	// DataRate defines the data-rate for a join request.
	DataRate int

	// PingSlotPeriodicity defines the requested ping-slot periodicity.
	PingSlotPeriodicity uint8

	// TxCw holds the continuous-wave parameters.
	TxCw TxCwParams
}

// MlmeResponse defines the synchronous outcome of an MLME service request.
type MlmeResponse struct {
	Status Status

	// DutyCycleWait holds the advertised wait time in case the request
	// was rejected with StatusDutyCycleRestricted.
	DutyCycleWait time.Duration
}

// MlmeConfirm defines the asynchronous confirmation of a previously
// accepted MLME service request.
type MlmeConfirm struct {
	Type   MlmeType
	Status EventInfoStatus

	// Link-check results.
	DemodMargin uint8
	NbGateways  uint8

	// DeviceTime holds the network time returned by a device-time request.
	DeviceTime time.Time
}

// MlmeIndicationType defines the type of an unsolicited MLME indication.
type MlmeIndicationType int

// Available MLME indication types.
const (
	MlmeIndScheduleUplink MlmeIndicationType = iota
	MlmeIndBeaconLost
	MlmeIndBeacon
)

// String implements fmt.Stringer.
func (t MlmeIndicationType) String() string {
	switch t {
	case MlmeIndScheduleUplink:
		return "MLME_SCHEDULE_UPLINK"
	case MlmeIndBeaconLost:
		return "MLME_BEACON_LOST"
	case MlmeIndBeacon:
		return "MLME_BEACON"
	default:
		return "MLME_IND_UNKNOWN"
	}
}

// BeaconInfo holds the meta-data of a received network beacon.
type BeaconInfo struct {
	Time       time.Time
	Frequency  uint32
	DataRate   int
	RSSI       int16
	SNR        int8
	GwInfoDesc uint8
	GwInfo     [6]byte
}

// MlmeIndication defines an unsolicited MLME event.
type MlmeIndication struct {
	Type       MlmeIndicationType
	Status     EventInfoStatus
	BeaconInfo BeaconInfo
}
