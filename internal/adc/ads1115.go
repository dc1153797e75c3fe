// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adc

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

// ADS1115 drives a TI ADS1115 over I2C as the conversion engine. The chip
// converts at 15 bits plus sign; Configure narrows the result to the
// requested resolution by discarding low bits, so a 10-bit configuration
// yields the same 0..1023 code range the NTC divider was laid out for.
type ADS1115 struct {
	bus   i2c.BusCloser
	adc   *ads1x15.Dev
	pins  [BufferSize]ads1x15.PinADC
	shift uint

	state       bufferState
	completions chan Completion
}

// NewADS1115 opens the converter at the given address on an already-open bus.
// The bus is closed together with the converter.
func NewADS1115(bus i2c.BusCloser, addr uint16) (*ADS1115, error) {
	opts := ads1x15.DefaultOpts
	opts.I2cAddress = addr

	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("ads1115 at 0x%02X: %w", addr, err)
	}

	return &ADS1115{
		bus:         bus,
		adc:         dev,
		completions: make(chan Completion, BufferSize),
	}, nil
}

// Configure prepares both single-ended channels and fixes the resolution.
func (c *ADS1115) Configure(channels [BufferSize]Channel, resolutionBits uint) error {
	if resolutionBits == 0 || resolutionBits > 15 {
		return fmt.Errorf("adc: unsupported resolution %d bits", resolutionBits)
	}
	c.shift = 15 - resolutionBits

	for i, ch := range channels {
		input, err := inputByName(ch.InputPin)
		if err != nil {
			return err
		}
		pin, err := c.adc.PinForChannel(input, 3300*physic.MilliVolt, 10*physic.Hertz, ads1x15.SaveEnergy)
		if err != nil {
			return fmt.Errorf("adc: channel %d (%s): %w", ch.Index, ch.InputPin, err)
		}
		c.pins[i] = pin
		log.Printf("adc: channel %d configured on %s", ch.Index, ch.InputPin)
	}
	return nil
}

// Arm submits a buffer to receive an upcoming conversion round.
func (c *ADS1115) Arm(bufferID int) error {
	return c.state.arm(bufferID)
}

// Trigger starts one conversion round. It returns immediately; the result is
// delivered on Completions. The driver is single-issue: a trigger while a
// round is in flight returns ErrBusy.
func (c *ADS1115) Trigger() error {
	id, err := c.state.take()
	if err != nil {
		return err
	}
	go c.convert(id)
	return nil
}

func (c *ADS1115) convert(id int) {
	comp := Completion{BufferID: id}
	for i, pin := range c.pins {
		sample, err := pin.Read()
		if err != nil {
			comp.Err = fmt.Errorf("adc: channel %d read: %w", i, err)
			break
		}
		comp.Values[i] = int16(sample.Raw >> c.shift)
	}
	c.state.done()
	c.completions <- comp
}

// Completions delivers one event per finished round, in trigger order.
func (c *ADS1115) Completions() <-chan Completion {
	return c.completions
}

// Close halts the channels and releases the bus.
func (c *ADS1115) Close() error {
	for _, pin := range c.pins {
		if pin != nil {
			if err := pin.Halt(); err != nil {
				return fmt.Errorf("adc: halt: %w", err)
			}
		}
	}
	return c.bus.Close()
}

func inputByName(name string) (ads1x15.Channel, error) {
	switch name {
	case "AIN0":
		return ads1x15.Channel0, nil
	case "AIN1":
		return ads1x15.Channel1, nil
	case "AIN2":
		return ads1x15.Channel2, nil
	case "AIN3":
		return ads1x15.Channel3, nil
	}
	return 0, fmt.Errorf("adc: unknown input pin %q", name)
}
