package gpioline

import (
	"time"
)

// Actuator drives one output line and remembers the last commanded level, so
// the line can be restored after it is borrowed as an input.
type Actuator struct {
	line     Line
	level    bool
	debounce time.Duration
	pressed  bool // previous button sample, true while held
}

// NewActuator configures the line as an output at the initial level.
func NewActuator(line Line, initial bool, debounce time.Duration) (*Actuator, error) {
	if err := line.ConfigureOutput(initial); err != nil {
		return nil, err
	}
	return &Actuator{line: line, level: initial, debounce: debounce}, nil
}

// Set drives the line and updates the remembered level.
func (a *Actuator) Set(high bool) error {
	a.level = high
	return a.line.Set(high)
}

// Toggle inverts the remembered level and drives it.
func (a *Actuator) Toggle() error {
	return a.Set(!a.level)
}

// Level returns the last commanded output level.
func (a *Actuator) Level() bool {
	return a.level
}

// PollButton samples the line as an input and toggles the remembered output
// level on a debounced falling edge (a press pulls the line low). The settle
// delay blocks the caller's tick; that only happens on user action and stays
// well under one tick period. The line is restored to the commanded output
// level before returning, so it never floats between polls.
func (a *Actuator) PollButton() (bool, error) {
	if err := a.line.ConfigureInput(); err != nil {
		return false, err
	}
	lvl, err := a.line.Read()
	if err != nil {
		return false, err
	}

	toggled := false
	pressed := !lvl
	if pressed && !a.pressed {
		time.Sleep(a.debounce)
		lvl, err = a.line.Read()
		if err != nil {
			return false, err
		}
		pressed = !lvl
		if pressed {
			a.level = !a.level
			toggled = true
		}
	}
	a.pressed = pressed

	if err := a.line.ConfigureOutput(a.level); err != nil {
		return false, err
	}
	return toggled, nil
}
