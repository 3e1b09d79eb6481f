package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerFiresOnce(t *testing.T) {
	assert := assert.New(t)

	var fired int32
	tmr := New("tx-next-packet", func() {
		atomic.AddInt32(&fired, 1)
	})
	tmr.SetDuration(10 * time.Millisecond)
	tmr.Start()

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(1, atomic.LoadInt32(&fired))
}

func TestTimerStop(t *testing.T) {
	assert := assert.New(t)

	var fired int32
	tmr := New("led", func() {
		atomic.AddInt32(&fired, 1)
	})
	tmr.SetDuration(20 * time.Millisecond)
	tmr.Start()
	tmr.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(0, atomic.LoadInt32(&fired))

	// stopping again must not panic
	tmr.Stop()
}

func TestTimerRestart(t *testing.T) {
	assert := assert.New(t)

	var fired int32
	tmr := New("led-beacon", func() {
		atomic.AddInt32(&fired, 1)
	})
	tmr.SetDuration(30 * time.Millisecond)
	tmr.Start()
	time.Sleep(10 * time.Millisecond)
	tmr.Start()

	time.Sleep(15 * time.Millisecond)
	assert.EqualValues(0, atomic.LoadInt32(&fired))

	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(1, atomic.LoadInt32(&fired))
}
