// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package adc

import (
	"fmt"
	"log"
)

// Mock is an in-process converter for bench runs and tests. It follows the
// same arm/trigger/completion contract as the hardware driver but draws its
// values from a source function, delivered synchronously on Trigger.
type Mock struct {
	source func(round uint32) [BufferSize]int16
	round  uint32

	state       bufferState
	completions chan Completion
}

// NewMock creates a mock converter. source is called once per triggered
// round with a zero-based round counter.
func NewMock(source func(round uint32) [BufferSize]int16) *Mock {
	return &Mock{
		source:      source,
		completions: make(chan Completion, BufferSize),
	}
}

func (m *Mock) Configure(channels [BufferSize]Channel, resolutionBits uint) error {
	if resolutionBits == 0 || resolutionBits > 15 {
		return fmt.Errorf("adc: unsupported resolution %d bits", resolutionBits)
	}
	for _, ch := range channels {
		log.Printf("adc: mock channel %d configured on %s", ch.Index, ch.InputPin)
	}
	// The hardware raises a calibration-done event after configuration. It
	// carries no state, so the mock just reports it.
	log.Println("adc: mock calibration complete")
	return nil
}

func (m *Mock) Arm(bufferID int) error {
	return m.state.arm(bufferID)
}

func (m *Mock) Trigger() error {
	id, err := m.state.take()
	if err != nil {
		return err
	}
	values := m.source(m.round)
	m.round++
	m.state.done()
	m.completions <- Completion{BufferID: id, Values: values}
	return nil
}

func (m *Mock) Completions() <-chan Completion {
	return m.completions
}

// Rounds returns how many conversions have been triggered.
func (m *Mock) Rounds() uint32 {
	return m.round
}

func (m *Mock) Close() error {
	return nil
}
