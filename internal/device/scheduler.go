package device

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-device-classb/internal/mac"
)

// prepareFrame rebuilds the application payload for the given port.
// Port 3 carries the default telemetry payload; port 224 is owned by
// the compliance-test engine. Other ports keep the buffered payload.
// Must be called with the device mutex held.
func (d *Device) prepareFrame(port uint8) {
	switch port {
	case 3:
		level := d.readings.SensorLevel()
		vdd := d.readings.BatteryVoltage()

		d.appDataSize = 4
		d.appDataSizeBackup = 4
		d.appData[0] = 0
		if d.appLedState {
			d.appData[0] = 1
		}
		d.appData[1] = level
		d.appData[2] = byte(vdd >> 8)
		d.appData[3] = byte(vdd)

	case compliancePort:
		d.prepareComplianceFrame()
	}
}

// sendFrame submits the prepared frame. When the payload does not fit
// the current data-rate an empty unconfirmed frame is submitted instead
// to flush queued MAC commands. It returns true when the request was
// rejected and a retry is required.
// Must be called with the device mutex held.
func (d *Device) sendFrame() bool {
	var req mac.McpsRequest

	if d.mac.QueryTxPossible(int(d.appDataSize)) != mac.StatusOK {
		// Send an empty frame in order to flush MAC commands.
		req = mac.McpsRequest{
			Type:     mac.McpsUnconfirmed,
			DataRate: d.conf.Device.DataRate,
		}
	} else if d.isTxConfirmed {
		req = mac.McpsRequest{
			Type:     mac.McpsConfirmed,
			Port:     d.appPort,
			Data:     append([]byte{}, d.appData[:d.appDataSize]...),
			DataRate: d.conf.Device.DataRate,
			NbTrials: confirmedNbTrials,
		}
	} else {
		req = mac.McpsRequest{
			Type:     mac.McpsUnconfirmed,
			Port:     d.appPort,
			Data:     append([]byte{}, d.appData[:d.appDataSize]...),
			DataRate: d.conf.Device.DataRate,
		}
	}

	d.lastTxPort = req.Port
	d.lastTxData = req.Data

	resp := d.mac.McpsRequest(req)
	fields := log.Fields{
		"type":   req.Type,
		"port":   req.Port,
		"size":   len(req.Data),
		"status": resp.Status,
	}
	if resp.Status == mac.StatusDutyCycleRestricted {
		fields["next_tx_in"] = resp.DutyCycleWait
	}
	if resp.Status == mac.StatusOK {
		log.WithFields(fields).Info("device: mcps request")
	} else {
		log.WithFields(fields).Warning("device: mcps request rejected")
	}

	return resp.Status != mac.StatusOK
}

// txCycleDelay computes the next transmit-cycle delay: a fixed cadence
// during an active compliance session, otherwise the configured
// interval with a symmetric random jitter to desynchronize devices
// sharing a duty-cycle limited channel.
// Must be called with the device mutex held.
func (d *Device) txCycleDelay() time.Duration {
	if d.compliance.Running {
		return complianceTxInterval
	}

	jitter := time.Duration(0)
	if r := int64(d.conf.Device.TxIntervalRand); r > 0 {
		jitter = time.Duration(d.rnd.Int63n(2*r+1) - r)
	}
	return d.conf.Device.TxInterval + jitter
}
