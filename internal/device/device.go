// Package device implements the control plane of a LoRaWAN Class B
// end-device: the lifecycle state machine driving network join, beacon
// acquisition and ping-slot negotiation, the duty-cycle aware transmit
// scheduler, the downlink event dispatcher and the certification
// (compliance) test engine. It sits on top of the MAC engine and owns
// all shared device state; the engine invokes its callbacks, the main
// loop is the only place where state is acted upon.
package device

import (
	"context"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-device-classb/internal/band"
	"github.com/brocaar/chirpstack-device-classb/internal/config"
	"github.com/brocaar/chirpstack-device-classb/internal/integration"
	"github.com/brocaar/chirpstack-device-classb/internal/mac"
	"github.com/brocaar/chirpstack-device-classb/internal/monitoring"
	"github.com/brocaar/chirpstack-device-classb/internal/storage"
	"github.com/brocaar/chirpstack-device-classb/internal/timer"
	"github.com/brocaar/lorawan"
)

const (
	// appDataMaxSize defines the maximum application payload size.
	appDataMaxSize = 242

	// complianceTxInterval defines the fixed transmit cadence during an
	// active compliance-test session.
	complianceTxInterval = 5 * time.Second

	// confirmedNbTrials defines the number of trials for confirmed
	// uplinks.
	confirmedNbTrials = 8

	// compliancePort defines the application port reserved for the
	// certification protocol.
	compliancePort = 224

	// txIndicatorTimeout / rxIndicatorTimeout define how long the
	// transmit / receive indicators stay on.
	txIndicatorTimeout = 25 * time.Millisecond
	rxIndicatorTimeout = 25 * time.Millisecond

	// beaconIndicatorInterval defines the blink interval of the beacon
	// lock indicator.
	beaconIndicatorInterval = 5 * time.Second
)

// Device implements the device control plane. All mutable state is
// owned by the Device and guarded by its mutex; MAC engine callbacks
// and timer callbacks only mutate state and signal the main loop, the
// loop is the only reader that acts on it.
type Device struct {
	mu sync.Mutex

	conf     config.Config
	mac      mac.Mac
	store    storage.Store
	pub      integration.Publisher
	readings Readings
	rnd      *rand.Rand

	state       State
	wakeUpState State
	nextTx      bool

	appPort           uint8
	appDataSize       uint8
	appDataSizeBackup uint8
	appData           [appDataMaxSize]byte
	isTxConfirmed     bool
	appLedState       bool

	txIndicator bool
	rxIndicator bool

	// last submitted uplink, reported on the transmit confirmation
	lastTxPort uint8
	lastTxData []byte

	compliance complianceState

	txNextPacketTimer *timer.Timer
	txLedTimer        *timer.Timer
	rxLedTimer        *timer.Timer
	ledBeaconTimer    *timer.Timer

	// wake is the single-slot wake-up notification: the MAC engine's
	// processing-needed callback and every timer / event callback post
	// to it, the sleep step is the only consumer. Channel semantics
	// make the check-and-clear around the idle wait atomic, a
	// notification arriving between check and sleep is never lost.
	wake chan struct{}
}

// Option defines a Device option.
type Option func(d *Device)

// WithReadings sets the telemetry readings provider.
func WithReadings(r Readings) Option {
	return func(d *Device) {
		d.readings = r
	}
}

// New creates a new Device on top of the given MAC engine, context
// store and event publisher.
func New(conf config.Config, m mac.Mac, store storage.Store, pub integration.Publisher, opts ...Option) (*Device, error) {
	switch conf.Device.Activation {
	case "otaa", "abp":
	default:
		return nil, errors.Errorf("unknown activation: %s", conf.Device.Activation)
	}
	switch conf.Device.BeaconStrategy {
	case "device_time", "beacon_timing":
	default:
		return nil, errors.Errorf("unknown beacon strategy: %s", conf.Device.BeaconStrategy)
	}

	d := Device{
		conf:     conf,
		mac:      m,
		store:    store,
		pub:      pub,
		readings: staticReadings{},
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),

		state:       StateRestore,
		wakeUpState: StateSend,
		nextTx:      true,

		appPort:           conf.Device.AppPort,
		appDataSize:       4,
		appDataSizeBackup: 4,
		isTxConfirmed:     conf.Device.Confirmed,

		wake: make(chan struct{}, 1),
	}

	for _, o := range opts {
		o(&d)
	}

	d.txNextPacketTimer = timer.New("tx-next-packet", d.onTxNextPacketTimer)
	d.txLedTimer = timer.New("tx-indicator", d.onTxLedTimer)
	d.txLedTimer.SetDuration(txIndicatorTimeout)
	d.rxLedTimer = timer.New("rx-indicator", d.onRxLedTimer)
	d.rxLedTimer.SetDuration(rxIndicatorTimeout)
	d.ledBeaconTimer = timer.New("beacon-indicator", d.onLedBeaconTimer)
	d.ledBeaconTimer.SetDuration(beaconIndicatorInterval)

	m.SetHandler(&d)
	m.SetProcessNotify(d.notifyWake)

	return &d, nil
}

// Run runs the device loop until the context is canceled. It returns an
// error only when the MAC engine cannot be started; every other failure
// is handled by the state machine itself.
func (d *Device) Run(ctx context.Context) error {
	log.Info("device: starting device loop")

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return nil
		default:
		}

		d.mac.Process()

		sleep, err := d.step()
		if err != nil {
			return err
		}
		if sleep {
			select {
			case <-d.wake:
			case <-ctx.Done():
				d.shutdown()
				return nil
			}
		}
	}
}

func (d *Device) shutdown() {
	d.txNextPacketTimer.Stop()
	d.txLedTimer.Stop()
	d.rxLedTimer.Stop()
	d.ledBeaconTimer.Stop()
	log.Info("device: device loop stopped")
}

// step evaluates exactly one state-machine step to completion. It
// returns true when the loop may enter the idle wait.
func (d *Device) step() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateRestore:
		d.restore()
		d.setState(StateStart)

	case StateStart:
		if err := d.start(); err != nil {
			return false, err
		}

	case StateJoin:
		if d.conf.Device.Activation == "abp" {
			d.activateABP()
			d.setState(d.acquisitionState())
		} else {
			d.joinNetwork()
		}

	case StateReqDeviceTime:
		if d.nextTx {
			resp := d.mac.MlmeRequest(mac.MlmeRequest{Type: mac.MlmeDeviceTime})
			d.logMlmeRequest(mac.MlmeDeviceTime, resp)
			if resp.Status == mac.StatusOK {
				d.wakeUpState = StateSend
			}
		}
		d.setState(StateSend)

	case StateReqBeaconTiming:
		if d.nextTx {
			resp := d.mac.MlmeRequest(mac.MlmeRequest{Type: mac.MlmeBeaconTiming})
			d.logMlmeRequest(mac.MlmeBeaconTiming, resp)
			if resp.Status == mac.StatusOK {
				d.wakeUpState = StateSend
			}
		}
		d.setState(StateSend)

	case StateBeaconAcquisition:
		if d.nextTx {
			resp := d.mac.MlmeRequest(mac.MlmeRequest{Type: mac.MlmeBeaconAcquisition})
			d.logMlmeRequest(mac.MlmeBeaconAcquisition, resp)
			d.nextTx = false
		}
		d.setState(StateSend)

	case StateReqPingSlotAck:
		if d.nextTx {
			resp := d.mac.MlmeRequest(mac.MlmeRequest{Type: mac.MlmeLinkCheck})
			d.logMlmeRequest(mac.MlmeLinkCheck, resp)

			resp = d.mac.MlmeRequest(mac.MlmeRequest{
				Type:                mac.MlmePingSlotInfo,
				PingSlotPeriodicity: d.conf.Device.PingSlotPeriodicity,
			})
			d.logMlmeRequest(mac.MlmePingSlotInfo, resp)
			if resp.Status == mac.StatusOK {
				d.wakeUpState = StateSend
			}
		}
		d.setState(StateSend)

	case StateSend:
		if d.nextTx {
			d.prepareFrame(d.appPort)
			d.nextTx = d.sendFrame()
		}
		d.setState(StateCycle)

	case StateCycle:
		d.setState(StateSleep)
		interval := d.txCycleDelay()
		log.WithFields(log.Fields{
			"interval": interval,
		}).Debug("device: scheduling next uplink cycle")
		d.txNextPacketTimer.SetDuration(interval)
		d.txNextPacketTimer.Start()

	case StateSleep:
		d.saveContext()
		return true, nil

	default:
		// Defensive recovery: an undefined state restarts the machine.
		log.WithFields(log.Fields{
			"state": d.state,
		}).Warning("device: undefined state, restarting state machine")
		d.setState(StateStart)
	}

	return false, nil
}

// restore reloads the persisted activation context. Without one, the
// device identity is read from the secure element and, for ABP, the
// device address is assigned.
func (d *Device) restore() {
	b, err := d.store.Restore()
	if err == nil {
		if err := d.mac.SetContext(b); err != nil {
			log.WithError(err).Warning("device: restore activation context error")
		} else {
			log.Info("device: activation context restored")
			return
		}
	} else if err != storage.ErrNotFound {
		log.WithError(err).Warning("device: read activation context error")
	}

	log.WithFields(log.Fields{
		"dev_eui":  d.mac.DevEUI(),
		"join_eui": d.mac.JoinEUI(),
		"se_pin":   d.mac.SePin(),
	}).Info("device: device identity")

	if d.conf.Device.Activation == "abp" {
		var netID lorawan.NetID
		v := d.conf.Device.NetID
		netID[0] = byte(v >> 16)
		netID[1] = byte(v >> 8)
		netID[2] = byte(v)
		d.mac.SetNetID(netID)
		d.mac.SetDevAddr(d.abpDevAddr())
	}
}

// start configures the MAC policy and starts the engine. An engine
// start failure is fatal: no request can be trusted afterwards.
func (d *Device) start() error {
	d.mac.SetPublicNetwork(d.conf.Device.PublicNetwork)
	d.mac.SetADR(d.conf.Device.ADR)
	if band.DutyCycleRegulated(band.Region()) {
		d.mac.SetDutyCycle(true)
	}
	d.mac.SetSystemMaxRxError(d.conf.Device.MaxRxError)

	if err := d.mac.Start(); err != nil {
		return errors.Wrap(err, "start mac engine error")
	}

	if d.mac.NetworkActivation() == mac.ActivationNone {
		d.setState(StateJoin)
	} else {
		d.setState(StateSend)
		d.nextTx = true
	}
	return nil
}

// activateABP marks the device as personalization-activated.
func (d *Device) activateABP() {
	d.mac.SetNetworkActivation(mac.ActivationABP)

	devAddr := d.mac.DevAddr()
	log.WithFields(log.Fields{
		"dev_addr": devAddr,
	}).Info("device: activated by personalization")

	event := integration.NewEvent(d.mac.DevEUI(), integration.EventJoin)
	event.DevAddr = &devAddr
	d.publish(event)
	monitoring.JoinCounter.WithLabelValues("abp").Inc()
}

func (d *Device) abpDevAddr() lorawan.DevAddr {
	var addr lorawan.DevAddr
	if d.conf.Device.DevAddr != "" {
		if err := addr.UnmarshalText([]byte(d.conf.Device.DevAddr)); err == nil {
			return addr
		}
		log.WithFields(log.Fields{
			"dev_addr": d.conf.Device.DevAddr,
		}).Warning("device: invalid static device address, assigning a random one")
	}
	v := uint32(d.rnd.Int63n(0x01FFFFFF + 1))
	binary.BigEndian.PutUint32(addr[:], v)
	return addr
}

// acquisitionState returns the configured beacon-synchronization entry
// state.
func (d *Device) acquisitionState() State {
	if d.conf.Device.BeaconStrategy == "beacon_timing" {
		return StateReqBeaconTiming
	}
	return StateReqDeviceTime
}

func (d *Device) setState(s State) {
	if d.state != s {
		monitoring.StateTransitionCounter.WithLabelValues(s.String()).Inc()
	}
	d.state = s
}

// saveContext persists the MAC activation context, best-effort.
func (d *Device) saveContext() {
	b, err := d.mac.Context()
	if err != nil {
		log.WithError(err).Warning("device: export activation context error")
		return
	}
	if err := d.store.Save(b); err != nil {
		log.WithError(err).Warning("device: save activation context error")
		return
	}
	log.Debug("device: activation context stored")
}

// notifyWake posts the wake-up notification. Non-blocking: the slot
// holds at most one pending notification.
func (d *Device) notifyWake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Device) publish(event integration.Event) {
	if d.pub == nil {
		return
	}
	if err := d.pub.Publish(event); err != nil {
		log.WithError(err).Error("device: publish event error")
	}
}

func (d *Device) logMlmeRequest(t mac.MlmeType, resp mac.MlmeResponse) {
	fields := log.Fields{
		"type":   t,
		"status": resp.Status,
	}
	if resp.Status == mac.StatusDutyCycleRestricted {
		fields["next_tx_in"] = resp.DutyCycleWait
	}
	if resp.Status == mac.StatusOK {
		log.WithFields(fields).Info("device: mlme request")
	} else {
		log.WithFields(fields).Warning("device: mlme request rejected")
	}
}

// onTxNextPacketTimer runs when the transmit cycle timer expires. It is
// also the path taken when the network signals pending data or requests
// a scheduled uplink.
func (d *Device) onTxNextPacketTimer() {
	d.mu.Lock()
	d.scheduleUplink()
	d.mu.Unlock()
	d.notifyWake()
}

// scheduleUplink re-arms an uplink opportunity. Must be called with the
// device mutex held.
func (d *Device) scheduleUplink() {
	d.txNextPacketTimer.Stop()

	if d.mac.NetworkActivation() == mac.ActivationNone {
		// Network not joined yet, try again.
		d.joinNetwork()
		return
	}
	d.setState(d.wakeUpState)
	d.nextTx = true
}

func (d *Device) onTxLedTimer() {
	d.mu.Lock()
	d.txLedTimer.Stop()
	d.txIndicator = false
	d.mu.Unlock()
	d.notifyWake()
}

func (d *Device) onRxLedTimer() {
	d.mu.Lock()
	d.rxLedTimer.Stop()
	d.rxIndicator = false
	d.mu.Unlock()
	d.notifyWake()
}

// Indicators returns the transmit and receive indicator states, the
// board LED outputs of the device.
func (d *Device) Indicators() (tx, rx bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txIndicator, d.rxIndicator
}

// onLedBeaconTimer blinks the receive indicator while the beacon is
// locked and re-arms itself.
func (d *Device) onLedBeaconTimer() {
	d.mu.Lock()
	d.rxIndicator = true
	d.rxLedTimer.Start()
	d.ledBeaconTimer.Start()
	d.mu.Unlock()
	d.notifyWake()
}
