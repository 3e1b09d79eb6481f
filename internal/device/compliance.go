package device

import (
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-device-classb/internal/band"
	"github.com/brocaar/chirpstack-device-classb/internal/integration"
	"github.com/brocaar/chirpstack-device-classb/internal/mac"
	"github.com/brocaar/chirpstack-device-classb/internal/monitoring"
)

// Compliance-test protocol steps (downlink byte 0 while a session is
// active).
const (
	complianceStepExit          = 0
	complianceStepCounterEcho   = 1
	complianceStepConfirmedOn   = 2
	complianceStepConfirmedOff  = 3
	complianceStepEchoIncrement = 4
	complianceStepLinkCheck     = 5
	complianceStepExitRejoin    = 6
	complianceStepTxCw          = 7
	complianceStepDeviceTime    = 8
	complianceStepSwitchClass   = 9
	complianceStepPingSlotInfo  = 10
	complianceStepBeaconTiming  = 11
)

// complianceState holds the certification test session state. While a
// session runs it overrides the normal scheduling decisions: port,
// message type and transmit cadence.
type complianceState struct {
	Running         bool
	State           uint8
	DownlinkCounter uint16
	LinkCheck       bool
	DemodMargin     uint8
	NbGateways      uint8

	// pre-entry mode, restored on exit
	backupConfirmed bool
	backupPort      uint8
}

// prepareComplianceFrame builds the next port-224 uplink payload. A
// latched link-check result pre-empts the pending step's own payload
// for one cycle.
// Must be called with the device mutex held.
func (d *Device) prepareComplianceFrame() {
	if d.compliance.LinkCheck {
		d.compliance.LinkCheck = false
		d.appDataSize = 3
		d.appData[0] = 5
		d.appData[1] = d.compliance.DemodMargin
		d.appData[2] = d.compliance.NbGateways
		d.compliance.State = complianceStepCounterEcho
		return
	}

	switch d.compliance.State {
	case complianceStepEchoIncrement:
		d.compliance.State = complianceStepCounterEcho
	case complianceStepCounterEcho:
		d.appDataSize = 2
		d.appData[0] = byte(d.compliance.DownlinkCounter >> 8)
		d.appData[1] = byte(d.compliance.DownlinkCounter)
	}
}

// handleComplianceDownlink drives the certification protocol from a
// port-224 downlink. Input not matching the protocol exactly is
// silently ignored.
// Must be called with the device mutex held.
func (d *Device) handleComplianceDownlink(ind mac.McpsIndication) {
	if !d.compliance.Running {
		// Session entry requires exactly 4 bytes, all 0x01.
		if len(ind.Data) != 4 {
			return
		}
		for _, b := range ind.Data {
			if b != 0x01 {
				return
			}
		}
		d.enterComplianceTest()
		return
	}

	if len(ind.Data) == 0 {
		return
	}

	d.compliance.State = ind.Data[0]
	log.WithFields(log.Fields{
		"step": d.compliance.State,
	}).Info("device: compliance test command")

	switch ind.Data[0] {
	case complianceStepExit:
		d.exitComplianceTest()

	case complianceStepCounterEcho:
		d.appDataSize = 2

	case complianceStepConfirmedOn:
		d.isTxConfirmed = true
		d.compliance.State = complianceStepCounterEcho

	case complianceStepConfirmedOff:
		d.isTxConfirmed = false
		d.compliance.State = complianceStepCounterEcho

	case complianceStepEchoIncrement:
		size := len(ind.Data)
		if size > appDataMaxSize {
			size = appDataMaxSize
		}
		d.appDataSize = uint8(size)
		d.appData[0] = 4
		for i := 1; i < size; i++ {
			d.appData[i] = ind.Data[i] + 1
		}

	case complianceStepLinkCheck:
		resp := d.mac.MlmeRequest(mac.MlmeRequest{Type: mac.MlmeLinkCheck})
		d.logMlmeRequest(mac.MlmeLinkCheck, resp)

	case complianceStepExitRejoin:
		d.exitComplianceTest()
		d.joinNetwork()

	case complianceStepTxCw:
		switch len(ind.Data) {
		case 3:
			resp := d.mac.MlmeRequest(mac.MlmeRequest{
				Type: mac.MlmeTxCw,
				TxCw: mac.TxCwParams{
					Timeout: uint16(ind.Data[1])<<8 | uint16(ind.Data[2]),
				},
			})
			d.logMlmeRequest(mac.MlmeTxCw, resp)
		case 7:
			resp := d.mac.MlmeRequest(mac.MlmeRequest{
				Type: mac.MlmeTxCw1,
				TxCw: mac.TxCwParams{
					Timeout:   uint16(ind.Data[1])<<8 | uint16(ind.Data[2]),
					Frequency: (uint32(ind.Data[3])<<16 | uint32(ind.Data[4])<<8 | uint32(ind.Data[5])) * 100,
					Power:     ind.Data[6],
				},
			})
			d.logMlmeRequest(mac.MlmeTxCw1, resp)
		}
		d.compliance.State = complianceStepCounterEcho

	case complianceStepDeviceTime:
		resp := d.mac.MlmeRequest(mac.MlmeRequest{Type: mac.MlmeDeviceTime})
		d.logMlmeRequest(mac.MlmeDeviceTime, resp)
		d.wakeUpState = StateSend
		d.setState(StateSend)

	case complianceStepSwitchClass:
		if len(ind.Data) < 2 {
			return
		}
		// 0 = Class A, 1 = Class B, 2 = Class C
		d.mac.SetDeviceClass(mac.Class(ind.Data[1]))
		monitoring.DeviceClassGauge.Set(float64(ind.Data[1]))
		d.setState(StateSend)

	case complianceStepPingSlotInfo:
		if len(ind.Data) < 2 {
			return
		}
		resp := d.mac.MlmeRequest(mac.MlmeRequest{
			Type:                mac.MlmePingSlotInfo,
			PingSlotPeriodicity: ind.Data[1],
		})
		d.logMlmeRequest(mac.MlmePingSlotInfo, resp)
		d.wakeUpState = StateSend
		d.setState(StateSend)

	case complianceStepBeaconTiming:
		resp := d.mac.MlmeRequest(mac.MlmeRequest{Type: mac.MlmeBeaconTiming})
		d.logMlmeRequest(mac.MlmeBeaconTiming, resp)
		d.wakeUpState = StateSend
		d.setState(StateSend)
	}
}

// enterComplianceTest starts a certification session: the current mode
// is backed up and the scheduler overrides take effect.
// Must be called with the device mutex held.
func (d *Device) enterComplianceTest() {
	d.compliance.backupConfirmed = d.isTxConfirmed
	d.compliance.backupPort = d.appPort
	d.appDataSizeBackup = d.appDataSize

	d.isTxConfirmed = false
	d.appPort = compliancePort
	d.appDataSize = 2
	d.compliance.DownlinkCounter = 0
	d.compliance.LinkCheck = false
	d.compliance.DemodMargin = 0
	d.compliance.NbGateways = 0
	d.compliance.Running = true
	d.compliance.State = complianceStepCounterEcho

	d.mac.SetADR(true)
	if band.DutyCycleRegulated(band.Region()) {
		d.mac.SetDutyCycle(false)
	}

	monitoring.ComplianceActiveGauge.Set(1)
	log.Info("device: compliance test started")

	event := integration.NewEvent(d.mac.DevEUI(), integration.EventStatus)
	event.Message = "compliance test started"
	d.publish(event)
}

// exitComplianceTest ends the session and restores the pre-entry mode,
// port and payload size, the configured ADR setting and the duty-cycle
// enforcement.
// Must be called with the device mutex held.
func (d *Device) exitComplianceTest() {
	d.isTxConfirmed = d.compliance.backupConfirmed
	d.appPort = d.compliance.backupPort
	d.appDataSize = d.appDataSizeBackup
	d.compliance.DownlinkCounter = 0
	d.compliance.Running = false

	d.mac.SetADR(d.conf.Device.ADR)
	if band.DutyCycleRegulated(band.Region()) {
		d.mac.SetDutyCycle(true)
	}

	monitoring.ComplianceActiveGauge.Set(0)
	log.Info("device: compliance test stopped")

	event := integration.NewEvent(d.mac.DevEUI(), integration.EventStatus)
	event.Message = "compliance test stopped"
	d.publish(event)
}
