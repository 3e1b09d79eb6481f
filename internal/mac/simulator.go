package mac

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/lorawan"
)

// Maximum application payload size per data-rate (EU868-class region,
// no dwell-time limit).
var maxPayloadSize = []int{51, 51, 51, 115, 242, 242}

// Simulator implements an in-process MAC engine with deterministic,
// scriptable behavior. Service requests are accepted synchronously and
// their confirmations are delivered through Process, mirroring the
// asynchronous request / confirm contract of a real engine. It backs
// the demo binary and the control-plane tests.
type Simulator struct {
	mu      sync.Mutex
	handler Handler
	notify  func()

	started       bool
	class         Class
	activation    Activation
	devEUI        lorawan.EUI64
	joinEUI       lorawan.EUI64
	sePin         [4]byte
	devAddr       lorawan.DevAddr
	netID         lorawan.NetID
	adr           bool
	publicNetwork bool
	dutyCycle     bool
	maxRxError    int
	dataRate      int
	uplinkCounter uint32
	channels      []uint32
	channelMask   []uint16

	queue []func(h Handler)

	// Failure injection. Set before issuing the request to script the
	// outcome of the next request of the matching kind.
	StartError            error
	JoinFail              bool
	BeaconAcquisitionFail bool
	PingSlotFail          bool
	DutyCycleRestricted   bool
	DutyCycleWait         time.Duration

	// Link-check results reported by the next link-check confirm.
	LinkCheckMargin   uint8
	LinkCheckGateways uint8

	mlmeSeen []MlmeType
	mcpsSeen []McpsRequest
}

// NewSimulator creates a new Simulator with EU868-class defaults.
func NewSimulator() *Simulator {
	return &Simulator{
		class:             ClassA,
		activation:        ActivationNone,
		devEUI:            lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8},
		joinEUI:           lorawan.EUI64{8, 7, 6, 5, 4, 3, 2, 1},
		sePin:             [4]byte{1, 2, 3, 4},
		dutyCycle:         true,
		channels:          []uint32{868100000, 868300000, 868500000},
		channelMask:       []uint16{0x0007},
		LinkCheckMargin:   10,
		LinkCheckGateways: 1,
	}
}

// Start implements the Mac interface.
func (s *Simulator) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.StartError != nil {
		return errors.Wrap(s.StartError, "simulator start")
	}
	s.started = true
	return nil
}

// SetHandler implements the Mac interface.
func (s *Simulator) SetHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// SetProcessNotify implements the Mac interface.
func (s *Simulator) SetProcessNotify(f func()) {
	s.mu.Lock()
	s.notify = f
	s.mu.Unlock()
}

// Process implements the Mac interface. It delivers all queued events
// to the registered handler.
func (s *Simulator) Process() {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	h := s.handler
	s.mu.Unlock()

	if h == nil {
		return
	}
	for _, ev := range queue {
		ev(h)
	}
}

func (s *Simulator) enqueue(ev func(h Handler)) {
	s.queue = append(s.queue, ev)
	if s.notify != nil {
		s.notify()
	}
}

// MlmeRequest implements the Mac interface.
func (s *Simulator) MlmeRequest(req MlmeRequest) MlmeResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mlmeSeen = append(s.mlmeSeen, req.Type)

	if s.DutyCycleRestricted && s.dutyCycle {
		return MlmeResponse{Status: StatusDutyCycleRestricted, DutyCycleWait: s.DutyCycleWait}
	}

	switch req.Type {
	case MlmeJoin:
		if s.JoinFail {
			s.enqueue(func(h Handler) {
				h.HandleMlmeConfirm(MlmeConfirm{Type: MlmeJoin, Status: EventInfoStatusJoinFail})
			})
			break
		}
		s.activation = ActivationOTAA
		s.devAddr = randomDevAddr()
		s.enqueue(func(h Handler) {
			h.HandleMlmeConfirm(MlmeConfirm{Type: MlmeJoin, Status: EventInfoStatusOK})
		})
	case MlmeLinkCheck:
		margin, gateways := s.LinkCheckMargin, s.LinkCheckGateways
		s.enqueue(func(h Handler) {
			h.HandleMlmeConfirm(MlmeConfirm{
				Type:        MlmeLinkCheck,
				Status:      EventInfoStatusOK,
				DemodMargin: margin,
				NbGateways:  gateways,
			})
		})
	case MlmeDeviceTime:
		now := time.Now()
		s.enqueue(func(h Handler) {
			h.HandleMlmeConfirm(MlmeConfirm{Type: MlmeDeviceTime, Status: EventInfoStatusOK, DeviceTime: now})
		})
	case MlmeBeaconTiming:
		s.enqueue(func(h Handler) {
			h.HandleMlmeConfirm(MlmeConfirm{Type: MlmeBeaconTiming, Status: EventInfoStatusOK})
		})
	case MlmeBeaconAcquisition:
		status := EventInfoStatusOK
		if s.BeaconAcquisitionFail {
			status = EventInfoStatusBeaconNotFound
		}
		s.enqueue(func(h Handler) {
			h.HandleMlmeConfirm(MlmeConfirm{Type: MlmeBeaconAcquisition, Status: status})
		})
	case MlmePingSlotInfo:
		status := EventInfoStatusOK
		if s.PingSlotFail {
			status = EventInfoStatusError
		}
		s.enqueue(func(h Handler) {
			h.HandleMlmeConfirm(MlmeConfirm{Type: MlmePingSlotInfo, Status: status})
		})
	case MlmeTxCw, MlmeTxCw1:
		log.WithFields(log.Fields{
			"timeout_s": req.TxCw.Timeout,
			"frequency": req.TxCw.Frequency,
			"power":     req.TxCw.Power,
		}).Info("mac: continuous-wave transmission requested")
		typ := req.Type
		s.enqueue(func(h Handler) {
			h.HandleMlmeConfirm(MlmeConfirm{Type: typ, Status: EventInfoStatusOK})
		})
	default:
		return MlmeResponse{Status: StatusServiceUnknown}
	}

	return MlmeResponse{Status: StatusOK}
}

// McpsRequest implements the Mac interface.
func (s *Simulator) McpsRequest(req McpsRequest) McpsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mcpsSeen = append(s.mcpsSeen, req)

	if s.activation == ActivationNone {
		return McpsResponse{Status: StatusNoNetworkJoined}
	}
	if s.DutyCycleRestricted && s.dutyCycle {
		return McpsResponse{Status: StatusDutyCycleRestricted, DutyCycleWait: s.DutyCycleWait}
	}

	s.uplinkCounter++
	conf := McpsConfirm{
		Type:          req.Type,
		Status:        EventInfoStatusOK,
		UplinkCounter: s.uplinkCounter,
		DataRate:      req.DataRate,
		Channel:       rand.Intn(len(s.channels)),
		AckReceived:   req.Type == McpsConfirmed,
	}
	s.enqueue(func(h Handler) {
		h.HandleMcpsConfirm(conf)
	})

	return McpsResponse{Status: StatusOK}
}

// QueryTxPossible implements the Mac interface.
func (s *Simulator) QueryTxPossible(size int) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	dr := s.dataRate
	if dr < 0 || dr >= len(maxPayloadSize) {
		return StatusDataRateInvalid
	}
	if size > maxPayloadSize[dr] {
		return StatusLengthError
	}
	return StatusOK
}

// SendMcpsIndication queues an inbound downlink for delivery on the
// next Process call.
func (s *Simulator) SendMcpsIndication(ind McpsIndication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueue(func(h Handler) {
		h.HandleMcpsIndication(ind)
	})
}

// SendMlmeIndication queues an unsolicited MLME event for delivery on
// the next Process call.
func (s *Simulator) SendMlmeIndication(ind MlmeIndication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueue(func(h Handler) {
		h.HandleMlmeIndication(ind)
	})
}

// MlmeSeen returns the MLME request types issued so far.
func (s *Simulator) MlmeSeen() []MlmeType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MlmeType, len(s.mlmeSeen))
	copy(out, s.mlmeSeen)
	return out
}

// McpsSeen returns the MCPS requests issued so far.
func (s *Simulator) McpsSeen() []McpsRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]McpsRequest, len(s.mcpsSeen))
	copy(out, s.mcpsSeen)
	return out
}

// DeviceClass implements the Mac interface.
func (s *Simulator) DeviceClass() Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.class
}

// SetDeviceClass implements the Mac interface.
func (s *Simulator) SetDeviceClass(c Class) Status {
	if c < ClassA || c > ClassC {
		return StatusParameterInvalid
	}
	s.mu.Lock()
	s.class = c
	s.mu.Unlock()
	return StatusOK
}

// NetworkActivation implements the Mac interface.
func (s *Simulator) NetworkActivation() Activation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activation
}

// SetNetworkActivation implements the Mac interface.
func (s *Simulator) SetNetworkActivation(a Activation) Status {
	s.mu.Lock()
	s.activation = a
	s.mu.Unlock()
	return StatusOK
}

// DevEUI implements the Mac interface.
func (s *Simulator) DevEUI() lorawan.EUI64 {
	return s.devEUI
}

// JoinEUI implements the Mac interface.
func (s *Simulator) JoinEUI() lorawan.EUI64 {
	return s.joinEUI
}

// SePin implements the Mac interface.
func (s *Simulator) SePin() [4]byte {
	return s.sePin
}

// DevAddr implements the Mac interface.
func (s *Simulator) DevAddr() lorawan.DevAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.devAddr
}

// SetDevAddr implements the Mac interface.
func (s *Simulator) SetDevAddr(addr lorawan.DevAddr) Status {
	s.mu.Lock()
	s.devAddr = addr
	s.mu.Unlock()
	return StatusOK
}

// SetNetID implements the Mac interface.
func (s *Simulator) SetNetID(netID lorawan.NetID) Status {
	s.mu.Lock()
	s.netID = netID
	s.mu.Unlock()
	return StatusOK
}

// SetADR implements the Mac interface.
func (s *Simulator) SetADR(enable bool) Status {
	s.mu.Lock()
	s.adr = enable
	s.mu.Unlock()
	return StatusOK
}

// ADR returns the ADR enable state.
func (s *Simulator) ADR() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adr
}

// SetPublicNetwork implements the Mac interface.
func (s *Simulator) SetPublicNetwork(enable bool) Status {
	s.mu.Lock()
	s.publicNetwork = enable
	s.mu.Unlock()
	return StatusOK
}

// SetSystemMaxRxError implements the Mac interface.
func (s *Simulator) SetSystemMaxRxError(ms int) Status {
	s.mu.Lock()
	s.maxRxError = ms
	s.mu.Unlock()
	return StatusOK
}

// ChannelsDataRate implements the Mac interface.
func (s *Simulator) ChannelsDataRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataRate
}

// ChannelFrequency implements the Mac interface.
func (s *Simulator) ChannelFrequency(channel int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel < 0 || channel >= len(s.channels) {
		return 0
	}
	return s.channels[channel]
}

// ChannelMask implements the Mac interface.
func (s *Simulator) ChannelMask() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint16, len(s.channelMask))
	copy(out, s.channelMask)
	return out
}

// SetDutyCycle implements the Mac interface.
func (s *Simulator) SetDutyCycle(enable bool) {
	s.mu.Lock()
	s.dutyCycle = enable
	s.mu.Unlock()
}

// DutyCycle returns the duty-cycle enforcement state.
func (s *Simulator) DutyCycle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dutyCycle
}

type simulatorContext struct {
	Activation    Activation
	Class         Class
	DevAddr       lorawan.DevAddr
	NetID         lorawan.NetID
	DataRate      int
	UplinkCounter uint32
}

// Context implements the Mac interface.
func (s *Simulator) Context() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(simulatorContext{
		Activation:    s.activation,
		Class:         s.class,
		DevAddr:       s.devAddr,
		NetID:         s.netID,
		DataRate:      s.dataRate,
		UplinkCounter: s.uplinkCounter,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gob encode error")
	}
	return buf.Bytes(), nil
}

// SetContext implements the Mac interface.
func (s *Simulator) SetContext(b []byte) error {
	var ctx simulatorContext
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&ctx); err != nil {
		return errors.Wrap(err, "gob decode error")
	}

	s.mu.Lock()
	s.activation = ctx.Activation
	s.class = ctx.Class
	s.devAddr = ctx.DevAddr
	s.netID = ctx.NetID
	s.dataRate = ctx.DataRate
	s.uplinkCounter = ctx.UplinkCounter
	s.mu.Unlock()
	return nil
}

func randomDevAddr() lorawan.DevAddr {
	var addr lorawan.DevAddr
	v := uint32(rand.Int63n(0x01FFFFFF + 1))
	addr[0] = byte(v >> 24)
	addr[1] = byte(v >> 16)
	addr[2] = byte(v >> 8)
	addr[3] = byte(v)
	return addr
}
