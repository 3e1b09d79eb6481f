package mac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	mlmeConfirms    []MlmeConfirm
	mcpsConfirms    []McpsConfirm
	mlmeIndications []MlmeIndication
	mcpsIndications []McpsIndication
}

func (h *testHandler) HandleMcpsConfirm(conf McpsConfirm) {
	h.mcpsConfirms = append(h.mcpsConfirms, conf)
}

func (h *testHandler) HandleMcpsIndication(ind McpsIndication) {
	h.mcpsIndications = append(h.mcpsIndications, ind)
}

func (h *testHandler) HandleMlmeConfirm(conf MlmeConfirm) {
	h.mlmeConfirms = append(h.mlmeConfirms, conf)
}

func (h *testHandler) HandleMlmeIndication(ind MlmeIndication) {
	h.mlmeIndications = append(h.mlmeIndications, ind)
}

func TestSimulatorJoin(t *testing.T) {
	assert := require.New(t)

	sim := NewSimulator()
	var h testHandler
	sim.SetHandler(&h)
	assert.NoError(sim.Start())

	notified := 0
	sim.SetProcessNotify(func() { notified++ })

	resp := sim.MlmeRequest(MlmeRequest{Type: MlmeJoin})
	assert.Equal(StatusOK, resp.Status)
	assert.True(notified > 0)

	// the confirm is delivered asynchronously
	assert.Len(h.mlmeConfirms, 0)
	sim.Process()
	assert.Len(h.mlmeConfirms, 1)
	assert.Equal(MlmeJoin, h.mlmeConfirms[0].Type)
	assert.Equal(EventInfoStatusOK, h.mlmeConfirms[0].Status)
	assert.Equal(ActivationOTAA, sim.NetworkActivation())
}

func TestSimulatorMcpsBeforeJoin(t *testing.T) {
	sim := NewSimulator()
	sim.SetHandler(&testHandler{})

	resp := sim.McpsRequest(McpsRequest{Type: McpsUnconfirmed, Port: 3})
	assert.Equal(t, StatusNoNetworkJoined, resp.Status)
}

func TestSimulatorDutyCycleRestriction(t *testing.T) {
	assert := require.New(t)

	sim := NewSimulator()
	sim.SetHandler(&testHandler{})
	sim.DutyCycleRestricted = true

	resp := sim.MlmeRequest(MlmeRequest{Type: MlmeJoin})
	assert.Equal(StatusDutyCycleRestricted, resp.Status)

	// disabling the enforcement lifts the restriction
	sim.SetDutyCycle(false)
	resp = sim.MlmeRequest(MlmeRequest{Type: MlmeJoin})
	assert.Equal(StatusOK, resp.Status)
}

func TestSimulatorQueryTxPossible(t *testing.T) {
	sim := NewSimulator()

	// DR0 allows up to 51 bytes of application payload
	assert.Equal(t, StatusOK, sim.QueryTxPossible(51))
	assert.Equal(t, StatusLengthError, sim.QueryTxPossible(52))
}

func TestSimulatorContext(t *testing.T) {
	assert := require.New(t)

	sim := NewSimulator()
	var h testHandler
	sim.SetHandler(&h)

	sim.MlmeRequest(MlmeRequest{Type: MlmeJoin})
	sim.Process()
	sim.McpsRequest(McpsRequest{Type: McpsUnconfirmed, Port: 3, Data: []byte{1}})

	b, err := sim.Context()
	assert.NoError(err)

	restored := NewSimulator()
	assert.NoError(restored.SetContext(b))
	assert.Equal(ActivationOTAA, restored.NetworkActivation())
	assert.Equal(sim.DevAddr(), restored.DevAddr())
}
