package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UplinkCounter counts submitted uplink frames, partitioned by
	// message type.
	UplinkCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_uplink_count",
		Help: "The number of uplink frames submitted to the MAC engine (per message type).",
	}, []string{"type"})

	// DownlinkCounter counts received downlink frames, partitioned by
	// receive window.
	DownlinkCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_downlink_count",
		Help: "The number of received downlink frames (per rx slot).",
	}, []string{"rx_slot"})

	// JoinCounter counts join attempts, partitioned by result.
	JoinCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_join_count",
		Help: "The number of join attempts (per result).",
	}, []string{"result"})

	// StateTransitionCounter counts device state-machine transitions.
	StateTransitionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_state_transition_count",
		Help: "The number of device state-machine transitions (per target state).",
	}, []string{"state"})

	// DeviceClassGauge reports the current device class (0=A, 1=B, 2=C).
	DeviceClassGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "device_class",
		Help: "The current device class (0=A, 1=B, 2=C).",
	})

	// ComplianceActiveGauge reports whether a compliance-test session
	// is active.
	ComplianceActiveGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "device_compliance_test_active",
		Help: "Whether a compliance-test session is active (0 or 1).",
	})
)
