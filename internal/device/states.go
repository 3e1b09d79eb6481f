package device

// State defines the device state-machine state.
type State int

// Available device states.
const (
	StateRestore State = iota
	StateStart
	StateJoin
	StateSend
	StateReqDeviceTime
	StateReqPingSlotAck
	StateReqBeaconTiming
	StateBeaconAcquisition
	StateSwitchClass
	StateCycle
	StateSleep
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateRestore:
		return "RESTORE"
	case StateStart:
		return "START"
	case StateJoin:
		return "JOIN"
	case StateSend:
		return "SEND"
	case StateReqDeviceTime:
		return "REQ_DEVICE_TIME"
	case StateReqPingSlotAck:
		return "REQ_PINGSLOT_ACK"
	case StateReqBeaconTiming:
		return "REQ_BEACON_TIMING"
	case StateBeaconAcquisition:
		return "BEACON_ACQUISITION"
	case StateSwitchClass:
		return "SWITCH_CLASS"
	case StateCycle:
		return "CYCLE"
	case StateSleep:
		return "SLEEP"
	default:
		return "UNKNOWN"
	}
}
