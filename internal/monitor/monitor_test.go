package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestErrorCounters(t *testing.T) {
	m := New(zaptest.NewLogger(t))

	m.IncError(KindParseError)
	m.IncError(KindParseError)
	for i := 0; i < 3; i++ {
		m.IncError(KindValidationReject)
	}

	assert.EqualValues(t, 2, m.ErrorCount(KindParseError))
	assert.EqualValues(t, 3, m.ErrorCount(KindValidationReject))
	assert.EqualValues(t, 0, m.ErrorCount(KindDecodeError))
}

func TestReady(t *testing.T) {
	m := New(zaptest.NewLogger(t))
	m.RecordReceiveTick()

	// Stream never checked yet: not ready.
	assert.False(t, m.Ready(time.Minute))

	m.SetStreamStatus(true, nil)
	assert.True(t, m.Ready(time.Minute))

	// Three consecutive failures flip readiness.
	m.SetStreamStatus(false, assert.AnError)
	m.SetStreamStatus(false, assert.AnError)
	assert.False(t, m.Ready(time.Minute), "stream inactive")
	m.SetStreamStatus(true, nil)
	assert.True(t, m.Ready(time.Minute))
	for i := 0; i < 3; i++ {
		m.SetStreamStatus(true, assert.AnError)
	}
	assert.False(t, m.Ready(time.Minute))
}

func TestAlive(t *testing.T) {
	m := New(zaptest.NewLogger(t))
	m.RecordReceiveTick()

	// Nothing pending: alive even with stale delivery clock.
	assert.True(t, m.Alive(time.Minute, time.Nanosecond))

	// Pending work with stale delivery: stuck.
	m.AddPending(10)
	time.Sleep(2 * time.Millisecond)
	assert.False(t, m.Alive(time.Minute, time.Millisecond))

	// Delivery activity revives it.
	m.AddRecordsDelivered(10)
	m.AddPending(-10)
	assert.True(t, m.Alive(time.Minute, time.Minute))
}

func TestSnap(t *testing.T) {
	m := New(zaptest.NewLogger(t))
	m.IncMessagesProcessed()
	m.AddMessagesDeleted(1)
	m.AddRecordsEmitted(5)
	m.AddRecordsDelivered(4)
	m.AddRecordsDropped(1)
	m.IncError(KindDecodeError)

	s := m.Snap()
	assert.EqualValues(t, 1, s.MessagesProcessed)
	assert.EqualValues(t, 1, s.MessagesDeleted)
	assert.EqualValues(t, 5, s.RecordsEmitted)
	assert.EqualValues(t, 4, s.RecordsDelivered)
	assert.EqualValues(t, 1, s.RecordsDropped)
	assert.EqualValues(t, 1, s.Errors[KindDecodeError])
}
