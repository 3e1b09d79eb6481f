package device

import (
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-device-classb/internal/integration"
	"github.com/brocaar/chirpstack-device-classb/internal/mac"
	"github.com/brocaar/chirpstack-device-classb/internal/monitoring"
)

// HandleMcpsConfirm implements the mac.Handler interface. It reports
// the transmitted frame and starts the transmit indicator; no state
// transition happens here.
func (d *Device) HandleMcpsConfirm(conf mac.McpsConfirm) {
	d.mu.Lock()

	if conf.Status == mac.EventInfoStatusOK {
		d.txIndicator = true
		d.txLedTimer.Start()
	}

	class := d.mac.DeviceClass()
	log.WithFields(log.Fields{
		"type":           conf.Type,
		"status":         conf.Status,
		"uplink_counter": conf.UplinkCounter,
		"class":          class,
		"port":           d.lastTxPort,
		"dr":             conf.DataRate,
		"frequency":      d.mac.ChannelFrequency(conf.Channel),
		"tx_power":       conf.TxPower,
		"ack_received":   conf.AckReceived,
		"channel_mask":   d.mac.ChannelMask(),
	}).Info("device: uplink frame")

	monitoring.UplinkCounter.WithLabelValues(conf.Type.String()).Inc()

	event := integration.NewEvent(d.mac.DevEUI(), integration.EventUp)
	event.Port = d.lastTxPort
	event.Data = d.lastTxData
	event.Confirmed = conf.Type == mac.McpsConfirmed
	event.Ack = conf.AckReceived
	event.Counter = conf.UplinkCounter
	event.DataRate = conf.DataRate
	event.Frequency = d.mac.ChannelFrequency(conf.Channel)
	event.TxPower = conf.TxPower
	event.Class = class.String()
	d.publish(event)

	d.mu.Unlock()
	d.notifyWake()
}

// HandleMcpsIndication implements the mac.Handler interface. It
// dispatches inbound downlink traffic: pending-data draining,
// application indicator control on port 1 / 2 and the certification
// protocol on port 224.
func (d *Device) HandleMcpsIndication(ind mac.McpsIndication) {
	d.mu.Lock()

	if ind.Status != mac.EventInfoStatusOK {
		log.WithFields(log.Fields{
			"type":   ind.Type,
			"status": ind.Status,
		}).Warning("device: downlink indication error")
		d.mu.Unlock()
		d.notifyWake()
		return
	}

	if ind.FramePending {
		// The server signals that it has pending data to be sent.
		// Schedule an uplink as soon as possible to flush it.
		d.scheduleUplink()
	}

	if d.compliance.Running {
		d.compliance.DownlinkCounter++
	}

	if ind.RxData {
		switch ind.Port {
		case 1, 2:
			// The application indicator is controlled on port 1 or 2.
			if len(ind.Data) == 1 {
				d.appLedState = ind.Data[0]&0x01 != 0
			}
		case compliancePort:
			d.handleComplianceDownlink(ind)
		}
	}

	d.rxIndicator = true
	d.rxLedTimer.Start()

	log.WithFields(log.Fields{
		"type":             ind.Type,
		"downlink_counter": ind.DownlinkCounter,
		"rx_slot":          ind.RxSlot,
		"port":             ind.Port,
		"size":             len(ind.Data),
		"dr":               ind.DataRate,
		"rssi":             ind.RSSI,
		"snr":              ind.SNR,
	}).Info("device: downlink frame")

	monitoring.DownlinkCounter.WithLabelValues(ind.RxSlot.String()).Inc()

	event := integration.NewEvent(d.mac.DevEUI(), integration.EventDown)
	event.Port = ind.Port
	event.Data = ind.Data
	event.Counter = ind.DownlinkCounter
	event.DataRate = ind.DataRate
	event.RSSI = ind.RSSI
	event.SNR = ind.SNR
	event.RxSlot = ind.RxSlot.String()
	d.publish(event)

	d.mu.Unlock()
	d.notifyWake()
}

// HandleMlmeConfirm implements the mac.Handler interface. It resolves
// the outcome of the asynchronous network-service requests.
func (d *Device) HandleMlmeConfirm(conf mac.MlmeConfirm) {
	d.mu.Lock()

	log.WithFields(log.Fields{
		"type":   conf.Type,
		"status": conf.Status,
	}).Debug("device: mlme confirm")

	switch conf.Type {
	case mac.MlmeJoin:
		if conf.Status == mac.EventInfoStatusOK {
			devAddr := d.mac.DevAddr()
			log.WithFields(log.Fields{
				"dev_addr": devAddr,
				"dr":       d.mac.ChannelsDataRate(),
			}).Info("device: joined network")

			monitoring.JoinCounter.WithLabelValues("otaa").Inc()
			event := integration.NewEvent(d.mac.DevEUI(), integration.EventJoin)
			event.DevAddr = &devAddr
			event.DataRate = d.mac.ChannelsDataRate()
			d.publish(event)

			d.setState(d.acquisitionState())
		} else {
			// Join was not successful, try again.
			monitoring.JoinCounter.WithLabelValues("fail").Inc()
			d.joinNetwork()
		}

	case mac.MlmeLinkCheck:
		if conf.Status == mac.EventInfoStatusOK && d.compliance.Running {
			d.compliance.LinkCheck = true
			d.compliance.DemodMargin = conf.DemodMargin
			d.compliance.NbGateways = conf.NbGateways
		}

	case mac.MlmeDeviceTime, mac.MlmeBeaconTiming:
		// Arm the wake-up state so application uplinks continue during
		// the beacon acquisition, then switch immediately.
		d.wakeUpState = StateSend
		d.setState(StateBeaconAcquisition)
		d.nextTx = true

	case mac.MlmeBeaconAcquisition:
		if conf.Status == mac.EventInfoStatusOK {
			d.wakeUpState = StateReqPingSlotAck
		} else {
			d.wakeUpState = d.acquisitionState()
		}

	case mac.MlmePingSlotInfo:
		if conf.Status == mac.EventInfoStatusOK {
			d.mac.SetDeviceClass(mac.ClassB)
			monitoring.DeviceClassGauge.Set(float64(mac.ClassB))
			log.Info("device: switched to Class B")

			event := integration.NewEvent(d.mac.DevEUI(), integration.EventStatus)
			event.Class = mac.ClassB.String()
			event.Message = "switched to Class B"
			d.publish(event)

			d.wakeUpState = StateSend
			d.setState(StateSend)
			d.nextTx = true
		} else {
			d.wakeUpState = StateReqPingSlotAck
		}
	}

	d.mu.Unlock()
	d.notifyWake()
}

// HandleMlmeIndication implements the mac.Handler interface. It handles
// the unsolicited network events: scheduled-uplink requests, beacon
// loss and beacon reception.
func (d *Device) HandleMlmeIndication(ind mac.MlmeIndication) {
	d.mu.Lock()

	switch ind.Type {
	case mac.MlmeIndScheduleUplink:
		// The MAC signals that an uplink shall be provided as soon as
		// possible.
		d.scheduleUplink()

	case mac.MlmeIndBeaconLost:
		d.mac.SetDeviceClass(mac.ClassA)
		monitoring.DeviceClassGauge.Set(float64(mac.ClassA))
		log.Warning("device: beacon lost, switched to Class A")

		event := integration.NewEvent(d.mac.DevEUI(), integration.EventStatus)
		event.Class = mac.ClassA.String()
		event.Message = "beacon lost, switched to Class A"
		d.publish(event)

		d.wakeUpState = d.acquisitionState()
		d.ledBeaconTimer.Stop()

	case mac.MlmeIndBeacon:
		if ind.Status == mac.EventInfoStatusBeaconLocked {
			d.ledBeaconTimer.Start()
			log.WithFields(log.Fields{
				"time":      ind.BeaconInfo.Time,
				"frequency": ind.BeaconInfo.Frequency,
				"dr":        ind.BeaconInfo.DataRate,
				"rssi":      ind.BeaconInfo.RSSI,
				"snr":       ind.BeaconInfo.SNR,
			}).Info("device: beacon received")
		} else {
			d.ledBeaconTimer.Stop()
			log.Debug("device: beacon not received")
		}
	}

	d.mu.Unlock()
	d.notifyWake()
}
