package mac

// Status defines the synchronous return status of a MAC service request.
type Status int

// Available request status values.
const (
	StatusOK Status = iota
	StatusBusy
	StatusServiceUnknown
	StatusParameterInvalid
	StatusFrequencyInvalid
	StatusDataRateInvalid
	StatusFreqAndDRInvalid
	StatusNoNetworkJoined
	StatusLengthError
	StatusRegionNotSupported
	StatusSkippedAppData
	StatusDutyCycleRestricted
	StatusNoChannelFound
	StatusNoFreeChannelFound
	StatusBusyBeaconReservedTime
	StatusBusyPingSlotWindowTime
	StatusBusyUplinkCollision
	StatusCryptoError
	StatusFCntHandlerError
	StatusMACCommandError
	StatusClassBError
	StatusConfirmQueueError
	StatusMulticastGroupUndefined
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBusy:
		return "Busy"
	case StatusServiceUnknown:
		return "Service unknown"
	case StatusParameterInvalid:
		return "Parameter invalid"
	case StatusFrequencyInvalid:
		return "Frequency invalid"
	case StatusDataRateInvalid:
		return "Datarate invalid"
	case StatusFreqAndDRInvalid:
		return "Frequency or datarate invalid"
	case StatusNoNetworkJoined:
		return "No network joined"
	case StatusLengthError:
		return "Length error"
	case StatusRegionNotSupported:
		return "Region not supported"
	case StatusSkippedAppData:
		return "Skipped APP data"
	case StatusDutyCycleRestricted:
		return "Duty-cycle restricted"
	case StatusNoChannelFound:
		return "No channel found"
	case StatusNoFreeChannelFound:
		return "No free channel found"
	case StatusBusyBeaconReservedTime:
		return "Busy beacon reserved time"
	case StatusBusyPingSlotWindowTime:
		return "Busy ping-slot window time"
	case StatusBusyUplinkCollision:
		return "Busy uplink collision"
	case StatusCryptoError:
		return "Crypto error"
	case StatusFCntHandlerError:
		return "FCnt handler error"
	case StatusMACCommandError:
		return "MAC command error"
	case StatusClassBError:
		return "ClassB error"
	case StatusConfirmQueueError:
		return "Confirm queue error"
	case StatusMulticastGroupUndefined:
		return "Multicast group undefined"
	default:
		return "Unknown error"
	}
}

// EventInfoStatus defines the status reported by an asynchronous MAC event.
type EventInfoStatus int

// Available event info status values.
const (
	EventInfoStatusOK EventInfoStatus = iota
	EventInfoStatusError
	EventInfoStatusTxTimeout
	EventInfoStatusRx1Timeout
	EventInfoStatusRx2Timeout
	EventInfoStatusRx1Error
	EventInfoStatusRx2Error
	EventInfoStatusJoinFail
	EventInfoStatusDownlinkRepeated
	EventInfoStatusTxDRPayloadSizeError
	EventInfoStatusDownlinkTooManyFramesLoss
	EventInfoStatusAddressFail
	EventInfoStatusMICFail
	EventInfoStatusMulticastFail
	EventInfoStatusBeaconLocked
	EventInfoStatusBeaconLost
	EventInfoStatusBeaconNotFound
)

// String implements fmt.Stringer.
func (s EventInfoStatus) String() string {
	switch s {
	case EventInfoStatusOK:
		return "OK"
	case EventInfoStatusError:
		return "Error"
	case EventInfoStatusTxTimeout:
		return "Tx timeout"
	case EventInfoStatusRx1Timeout:
		return "Rx 1 timeout"
	case EventInfoStatusRx2Timeout:
		return "Rx 2 timeout"
	case EventInfoStatusRx1Error:
		return "Rx1 error"
	case EventInfoStatusRx2Error:
		return "Rx2 error"
	case EventInfoStatusJoinFail:
		return "Join failed"
	case EventInfoStatusDownlinkRepeated:
		return "Downlink repeated"
	case EventInfoStatusTxDRPayloadSizeError:
		return "Tx DR payload size error"
	case EventInfoStatusDownlinkTooManyFramesLoss:
		return "Downlink too many frames loss"
	case EventInfoStatusAddressFail:
		return "Address fail"
	case EventInfoStatusMICFail:
		return "MIC fail"
	case EventInfoStatusMulticastFail:
		return "Multicast fail"
	case EventInfoStatusBeaconLocked:
		return "Beacon locked"
	case EventInfoStatusBeaconLost:
		return "Beacon lost"
	case EventInfoStatusBeaconNotFound:
		return "Beacon not found"
	default:
		return "Unknown status"
	}
}
