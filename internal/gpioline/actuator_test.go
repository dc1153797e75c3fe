package gpioline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActuator_SetAndToggleRememberLevel(t *testing.T) {
	fake := NewFake(false)
	a, err := NewActuator(fake, false, 0)
	require.NoError(t, err)

	require.NoError(t, a.Set(true))
	assert.True(t, a.Level())
	assert.True(t, fake.Level())

	require.NoError(t, a.Toggle())
	assert.False(t, a.Level())
	assert.False(t, fake.Level())
}

func TestPollButton_IdleLineDoesNothing(t *testing.T) {
	fake := NewFake(true)
	a, err := NewActuator(fake, true, 0)
	require.NoError(t, err)

	toggled, err := a.PollButton()
	require.NoError(t, err)

	assert.False(t, toggled)
	assert.True(t, a.Level())
	// The line is always handed back as an output so it never floats.
	assert.False(t, fake.IsInput())
	assert.True(t, fake.Level())
}

func TestPollButton_PressTogglesOnce(t *testing.T) {
	fake := NewFake(true)
	a, err := NewActuator(fake, true, 0)
	require.NoError(t, err)

	fake.SetSense(false) // button pressed, line pulled low
	toggled, err := a.PollButton()
	require.NoError(t, err)
	assert.True(t, toggled)
	assert.False(t, a.Level())
	assert.False(t, fake.Level(), "toggled level re-applied to the line")

	// Holding the button does not toggle again.
	toggled, err = a.PollButton()
	require.NoError(t, err)
	assert.False(t, toggled)
	assert.False(t, a.Level())

	// Release, then a second press toggles back.
	fake.SetSense(true)
	toggled, err = a.PollButton()
	require.NoError(t, err)
	assert.False(t, toggled)

	fake.SetSense(false)
	toggled, err = a.PollButton()
	require.NoError(t, err)
	assert.True(t, toggled)
	assert.True(t, a.Level())
}

// scriptLine reads a scripted level sequence so the settle re-sample can
// observe a different level than the first edge.
type scriptLine struct {
	reads []bool
	level bool
}

func (l *scriptLine) ConfigureOutput(high bool) error { l.level = high; return nil }
func (l *scriptLine) ConfigureInput() error           { return nil }
func (l *scriptLine) Set(high bool) error             { l.level = high; return nil }

func (l *scriptLine) Read() (bool, error) {
	v := l.reads[0]
	if len(l.reads) > 1 {
		l.reads = l.reads[1:]
	}
	return v, nil
}

func TestPollButton_BounceIsRejected(t *testing.T) {
	// Falling edge on the first sample, back high at the settle re-sample:
	// a mechanical bounce, not a press.
	line := &scriptLine{reads: []bool{false, true}}
	a, err := NewActuator(line, true, 0)
	require.NoError(t, err)

	toggled, err := a.PollButton()
	require.NoError(t, err)

	assert.False(t, toggled)
	assert.True(t, a.Level())
	assert.True(t, line.level, "commanded level restored after the poll")
}
