package adc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferState_SingleIssue(t *testing.T) {
	var b bufferState
	require.NoError(t, b.arm(0))
	require.NoError(t, b.arm(1))

	id, err := b.take()
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	// The driver is single-issue: no second round while one is in flight.
	_, err = b.take()
	assert.ErrorIs(t, err, ErrBusy)

	b.done()
	id, err = b.take()
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	b.done()
	_, err = b.take()
	assert.ErrorIs(t, err, ErrNotArmed)
}

func TestBufferState_ArmValidation(t *testing.T) {
	var b bufferState

	assert.ErrorIs(t, b.arm(2), ErrBadBuffer)
	assert.ErrorIs(t, b.arm(-1), ErrBadBuffer)

	require.NoError(t, b.arm(0))
	assert.ErrorIs(t, b.arm(0), ErrBadBuffer)
}

func receiveCompletion(t *testing.T, conv Converter) Completion {
	t.Helper()
	select {
	case c := <-conv.Completions():
		return c
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for completion")
		return Completion{}
	}
}

func TestMock_DoubleBufferRotation(t *testing.T) {
	conv := NewMock(func(round uint32) [BufferSize]int16 {
		return [BufferSize]int16{int16(round), int16(round) + 100}
	})

	channels := [BufferSize]Channel{
		{Index: 0, InputPin: "AIN0"},
		{Index: 1, InputPin: "AIN1"},
	}
	require.NoError(t, conv.Configure(channels, 10))
	require.NoError(t, conv.Arm(0))
	require.NoError(t, conv.Arm(1))

	// First round completes into buffer 0; buffer 1 stays armed, so the
	// pipeline is never left without a primed buffer.
	require.NoError(t, conv.Trigger())
	c := receiveCompletion(t, conv)
	assert.Equal(t, 0, c.BufferID)
	assert.Equal(t, [BufferSize]int16{0, 100}, c.Values)
	assert.Equal(t, 1, conv.state.armedCount())

	// Second round rotates to buffer 1 without a re-arm of buffer 0.
	require.NoError(t, conv.Trigger())
	c = receiveCompletion(t, conv)
	assert.Equal(t, 1, c.BufferID)
	assert.Equal(t, [BufferSize]int16{1, 101}, c.Values)

	// Both buffers consumed and none returned: the prime invariant is
	// broken and the trigger refuses.
	assert.ErrorIs(t, conv.Trigger(), ErrNotArmed)

	// Re-arming the consumed buffer restores operation.
	require.NoError(t, conv.Arm(0))
	require.NoError(t, conv.Trigger())
	c = receiveCompletion(t, conv)
	assert.Equal(t, 0, c.BufferID)
	assert.Equal(t, uint32(3), conv.Rounds())
}

func TestMock_ConfigureRejectsBadResolution(t *testing.T) {
	conv := NewMock(func(uint32) [BufferSize]int16 { return [BufferSize]int16{} })
	channels := [BufferSize]Channel{{Index: 0, InputPin: "AIN0"}, {Index: 1, InputPin: "AIN1"}}

	assert.Error(t, conv.Configure(channels, 0))
	assert.Error(t, conv.Configure(channels, 16))
	assert.NoError(t, conv.Configure(channels, 10))
}
