package device

import (
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-device-classb/internal/mac"
	"github.com/brocaar/chirpstack-device-classb/internal/monitoring"
)

// joinNetwork submits the network-join request at the default data-rate
// and supervises the synchronous outcome. The join result itself
// arrives asynchronously through the MLME confirm. Join retries have no
// backoff ceiling: the engine's duty-cycle gating is the only throttle.
// Must be called with the device mutex held.
func (d *Device) joinNetwork() {
	resp := d.mac.MlmeRequest(mac.MlmeRequest{
		Type:     mac.MlmeJoin,
		DataRate: d.conf.Device.DataRate,
	})
	d.logMlmeRequest(mac.MlmeJoin, resp)

	if resp.Status == mac.StatusOK {
		log.Info("device: joining")
		d.setState(StateSleep)
		return
	}

	monitoring.JoinCounter.WithLabelValues("rejected").Inc()
	if resp.Status == mac.StatusDutyCycleRestricted {
		log.WithFields(log.Fields{
			"next_tx_in": resp.DutyCycleWait,
		}).Warning("device: join rejected, duty-cycle restricted")
	}
	// The regular retry timer governs the next attempt.
	d.setState(StateCycle)
}
