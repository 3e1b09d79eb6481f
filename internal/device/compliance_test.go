package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brocaar/chirpstack-device-classb/internal/mac"
	"github.com/brocaar/chirpstack-device-classb/internal/test"
)

func complianceDownlink(sim *mac.Simulator, data []byte) {
	sim.SendMcpsIndication(mac.McpsIndication{
		Type:   mac.McpsUnconfirmed,
		Status: mac.EventInfoStatusOK,
		RxData: true,
		Port:   224,
		Data:   data,
		RxSlot: mac.RxSlot1,
	})
}

// lastUplink triggers a transmit cycle and returns the submitted
// request.
func lastUplink(t *testing.T, d *Device, sim *mac.Simulator) mac.McpsRequest {
	t.Helper()

	d.onTxNextPacketTimer()
	runUntilSleep(t, d)

	mcps := sim.McpsSeen()
	require.True(t, len(mcps) > 0)
	return mcps[len(mcps)-1]
}

func TestComplianceEntry(t *testing.T) {
	assert := require.New(t)

	d, sim := newTestDevice(t, test.GetConfig())
	runToClassB(t, d, sim)

	t.Run("payload not matching the activation pattern is ignored", func(t *testing.T) {
		complianceDownlink(sim, []byte{1, 1, 1})
		runUntilSleep(t, d)
		complianceDownlink(sim, []byte{1, 1, 1, 2})
		runUntilSleep(t, d)

		d.mu.Lock()
		defer d.mu.Unlock()
		assert.False(d.compliance.Running)
	})

	t.Run("activation", func(t *testing.T) {
		complianceDownlink(sim, []byte{1, 1, 1, 1})
		runUntilSleep(t, d)

		d.mu.Lock()
		assert.True(d.compliance.Running)
		assert.Equal(uint8(complianceStepCounterEcho), d.compliance.State)
		assert.Equal(uint8(compliancePort), d.appPort)
		assert.Equal(uint8(2), d.appDataSize)
		assert.False(d.isTxConfirmed)
		assert.Equal(complianceTxInterval, d.txCycleDelay())
		d.mu.Unlock()

		// ADR forced on, duty-cycle enforcement off for the session.
		assert.True(sim.ADR())
		assert.False(sim.DutyCycle())
	})

	t.Run("counter echo", func(t *testing.T) {
		complianceDownlink(sim, []byte{1})
		runUntilSleep(t, d)

		req := lastUplink(t, d, sim)
		assert.Equal(uint8(compliancePort), req.Port)
		assert.Equal(mac.McpsUnconfirmed, req.Type)
		// one downlink received since the session started
		assert.Equal([]byte{0, 1}, req.Data)
	})
}

func TestComplianceSteps(t *testing.T) {
	assert := require.New(t)

	d, sim := newTestDevice(t, test.GetConfig())
	runToClassB(t, d, sim)

	complianceDownlink(sim, []byte{1, 1, 1, 1})
	runUntilSleep(t, d)

	t.Run("confirmed mode on and off", func(t *testing.T) {
		complianceDownlink(sim, []byte{2})
		runUntilSleep(t, d)

		req := lastUplink(t, d, sim)
		assert.Equal(mac.McpsConfirmed, req.Type)
		assert.Equal(uint8(confirmedNbTrials), req.NbTrials)

		complianceDownlink(sim, []byte{3})
		runUntilSleep(t, d)

		req = lastUplink(t, d, sim)
		assert.Equal(mac.McpsUnconfirmed, req.Type)
	})

	t.Run("echo increment", func(t *testing.T) {
		complianceDownlink(sim, []byte{4, 10, 20, 0xff})
		runUntilSleep(t, d)

		req := lastUplink(t, d, sim)
		assert.Equal([]byte{4, 11, 21, 0}, req.Data)

		// the step resets to the counter echo afterwards
		req = lastUplink(t, d, sim)
		assert.Equal(2, len(req.Data))
		assert.Equal(byte(0), req.Data[0])
	})

	t.Run("link check", func(t *testing.T) {
		sim.LinkCheckMargin = 20
		sim.LinkCheckGateways = 3

		before := len(sim.MlmeSeen())
		complianceDownlink(sim, []byte{5})
		runUntilSleep(t, d)

		seen := sim.MlmeSeen()
		assert.True(mlmeIndex(seen, mac.MlmeLinkCheck, before) >= 0)

		// The latched result pre-empts the pending step for one cycle.
		req := lastUplink(t, d, sim)
		assert.Equal([]byte{5, 20, 3}, req.Data)

		req = lastUplink(t, d, sim)
		assert.Equal(byte(0), req.Data[0])
		assert.Equal(2, len(req.Data))
	})

	t.Run("continuous wave", func(t *testing.T) {
		before := len(sim.MlmeSeen())

		complianceDownlink(sim, []byte{7, 0, 5})
		runUntilSleep(t, d)
		assert.True(mlmeIndex(sim.MlmeSeen(), mac.MlmeTxCw, before) >= 0)

		complianceDownlink(sim, []byte{7, 0, 5, 0x0d, 0x3f, 0xc4, 14})
		runUntilSleep(t, d)
		assert.True(mlmeIndex(sim.MlmeSeen(), mac.MlmeTxCw1, before) >= 0)
	})

	t.Run("device time and beacon timing", func(t *testing.T) {
		before := len(sim.MlmeSeen())

		complianceDownlink(sim, []byte{8})
		runUntilSleep(t, d)
		assert.True(mlmeIndex(sim.MlmeSeen(), mac.MlmeDeviceTime, before) >= 0)

		complianceDownlink(sim, []byte{11})
		runUntilSleep(t, d)
		seen := sim.MlmeSeen()
		assert.True(mlmeIndex(seen, mac.MlmeBeaconTiming, before) >= 0)

		// Both commands restart the beacon acquisition sequence.
		assert.True(mlmeIndex(seen, mac.MlmeBeaconAcquisition, before) >= 0)
	})

	t.Run("switch class", func(t *testing.T) {
		complianceDownlink(sim, []byte{9, 0})
		runUntilSleep(t, d)
		assert.Equal(mac.ClassA, sim.DeviceClass())

		complianceDownlink(sim, []byte{9, 1})
		runUntilSleep(t, d)
		assert.Equal(mac.ClassB, sim.DeviceClass())
	})

	t.Run("ping slot info", func(t *testing.T) {
		before := len(sim.MlmeSeen())
		complianceDownlink(sim, []byte{10, 2})
		runUntilSleep(t, d)
		assert.True(mlmeIndex(sim.MlmeSeen(), mac.MlmePingSlotInfo, before) >= 0)
	})
}

func TestComplianceExit(t *testing.T) {
	assert := require.New(t)

	d, sim := newTestDevice(t, test.GetConfig())
	runToClassB(t, d, sim)

	complianceDownlink(sim, []byte{1, 1, 1, 1})
	runUntilSleep(t, d)
	complianceDownlink(sim, []byte{2})
	runUntilSleep(t, d)

	complianceDownlink(sim, []byte{0})
	runUntilSleep(t, d)

	d.mu.Lock()
	assert.False(d.compliance.Running)
	assert.Equal(uint8(3), d.appPort)
	assert.False(d.isTxConfirmed)
	assert.Equal(uint8(4), d.appDataSize)
	d.mu.Unlock()

	// The configured ADR setting and the duty-cycle enforcement are
	// restored.
	assert.True(sim.ADR())
	assert.True(sim.DutyCycle())

	req := lastUplink(t, d, sim)
	assert.Equal(uint8(3), req.Port)
	assert.Equal(mac.McpsUnconfirmed, req.Type)
}

func TestComplianceExitRejoin(t *testing.T) {
	assert := require.New(t)

	d, sim := newTestDevice(t, test.GetConfig())
	runToClassB(t, d, sim)

	complianceDownlink(sim, []byte{1, 1, 1, 1})
	runUntilSleep(t, d)

	before := len(sim.MlmeSeen())
	complianceDownlink(sim, []byte{6})
	runUntilSleep(t, d)

	d.mu.Lock()
	assert.False(d.compliance.Running)
	d.mu.Unlock()

	assert.True(mlmeIndex(sim.MlmeSeen(), mac.MlmeJoin, before) >= 0)
}
