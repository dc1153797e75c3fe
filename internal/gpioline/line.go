// Package gpioline models the digital lines the sampler drives: a plain
// set/read capability over periph GPIO, plus an actuator that remembers the
// last commanded level so a line can double as a debounced button input.
package gpioline

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Line is one digital line. The two configure calls switch the pin between
// its sensing and driving roles.
type Line interface {
	ConfigureOutput(high bool) error
	ConfigureInput() error
	Set(high bool) error
	Read() (bool, error)
}

type periphLine struct {
	pin gpio.PinIO
}

// Open resolves a pin by its gpioreg name (e.g. "GPIO24").
func Open(name string) (Line, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpioline: pin %q not found", name)
	}
	return &periphLine{pin: pin}, nil
}

func (l *periphLine) ConfigureOutput(high bool) error {
	return l.pin.Out(level(high))
}

func (l *periphLine) ConfigureInput() error {
	// Buttons pull the line to ground; idle reads high.
	return l.pin.In(gpio.PullUp, gpio.NoEdge)
}

func (l *periphLine) Set(high bool) error {
	return l.pin.Out(level(high))
}

func (l *periphLine) Read() (bool, error) {
	return bool(l.pin.Read()), nil
}

func level(high bool) gpio.Level {
	if high {
		return gpio.High
	}
	return gpio.Low
}
