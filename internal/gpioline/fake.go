// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gpioline

import "sync"

// Fake is an in-memory Line for mock runs and tests. While configured as an
// input it reads the externally scripted sense level; as an output it reads
// back the commanded level.
type Fake struct {
	mu     sync.Mutex
	level  bool // last commanded output level
	input  bool // currently configured as input
	sense  bool // level seen while input
}

// NewFake creates a fake line driven to the given level. The sense level
// idles high, matching a pulled-up button line.
func NewFake(initial bool) *Fake {
	return &Fake{level: initial, sense: true}
}

func (f *Fake) ConfigureOutput(high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = false
	f.level = high
	return nil
}

func (f *Fake) ConfigureInput() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = true
	return nil
}

func (f *Fake) Set(high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = high
	return nil
}

func (f *Fake) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.input {
		return f.sense, nil
	}
	return f.level, nil
}

// SetSense scripts the level an input read observes.
func (f *Fake) SetSense(high bool) {
	f.mu.Lock()
	f.sense = high
	f.mu.Unlock()
}

// Level returns the last commanded output level.
func (f *Fake) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// IsInput reports whether the line is currently configured as an input.
func (f *Fake) IsInput() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}
