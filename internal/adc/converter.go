// Package adc wraps the analog conversion engine behind the small contract
// the acquisition loop needs: configure two channels, keep two fixed buffers
// armed, trigger one round at a time, and receive completions asynchronously.
package adc

import (
	"errors"
	"fmt"
	"sync"
)

// BufferSize is the length of one conversion buffer: one value per channel.
const BufferSize = 2

// Channel identifies one analog input. Immutable after Configure.
type Channel struct {
	Index    int    // 0 or 1
	InputPin string // converter input name, e.g. "AIN0"
}

// Completion is delivered once per finished conversion round. Values holds
// the raw codes in channel order. A non-nil Err means the conversion engine
// failed in a way the loop must treat as fatal.
type Completion struct {
	BufferID int
	Values   [BufferSize]int16
	Err      error
}

// Converter is the driver adapter contract. Trigger is non-blocking; the
// result arrives on Completions. After consuming a completion the caller
// must Arm the same buffer again before that buffer can be reused.
type Converter interface {
	Configure(channels [BufferSize]Channel, resolutionBits uint) error
	Arm(bufferID int) error
	Trigger() error
	Completions() <-chan Completion
	Close() error
}

var (
	// ErrBusy means a conversion round is still in flight. The caller drops
	// the trigger and retries on the next tick.
	ErrBusy = errors.New("adc: conversion already in progress")

	// ErrNotArmed means no buffer is submitted to receive the next round.
	ErrNotArmed = errors.New("adc: no buffer armed")

	// ErrBadBuffer means an Arm call named a buffer that does not exist or
	// is already armed.
	ErrBadBuffer = errors.New("adc: invalid buffer")
)

// bufferState is the double-buffer bookkeeping shared by converter
// implementations. Exactly two buffers exist; the armed queue holds the ones
// submitted for upcoming rounds in submission order.
type bufferState struct {
	mu    sync.Mutex
	armed []int
	busy  bool
}

func (b *bufferState) arm(id int) error {
	if id < 0 || id >= 2 {
		return fmt.Errorf("%w: id %d", ErrBadBuffer, id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, armed := range b.armed {
		if armed == id {
			return fmt.Errorf("%w: buffer %d already armed", ErrBadBuffer, id)
		}
	}
	b.armed = append(b.armed, id)
	return nil
}

// take marks the next armed buffer as in-flight and returns its id.
func (b *bufferState) take() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.busy {
		return 0, ErrBusy
	}
	if len(b.armed) == 0 {
		return 0, ErrNotArmed
	}
	id := b.armed[0]
	b.armed = b.armed[1:]
	b.busy = true
	return id, nil
}

func (b *bufferState) done() {
	b.mu.Lock()
	b.busy = false
	b.mu.Unlock()
}

func (b *bufferState) armedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.armed)
}
