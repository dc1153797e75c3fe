// Package acquire orchestrates the sampling loop: trigger cadence, buffer
// rotation, reading-window population, consensus evaluation and the
// sampling/suspended state, all driven from fixed-duration ticks. Conversion
// completions arrive over the converter's event channel and are drained here,
// so no state is shared between the completion side and the tick side.
package acquire

import (
	"errors"
	"fmt"
	"log"

	"github.com/relabs-tech/ntc_monitor/internal/adc"
	"github.com/relabs-tech/ntc_monitor/internal/detect"
	"github.com/relabs-tech/ntc_monitor/internal/gpioline"
	"github.com/relabs-tech/ntc_monitor/internal/ntc"
	"github.com/relabs-tech/ntc_monitor/internal/telemetry"
)

// State is the acquisition subsystem state.
type State int

const (
	Sampling State = iota
	Suspended
)

func (s State) String() string {
	if s == Suspended {
		return "suspended"
	}
	return "sampling"
}

// Reasons reported with a transition to Suspended.
const (
	ReasonWatchdog  = "watchdog"
	ReasonConsensus = "consensus"
)

// Config carries the tick-domain constants for one Machine.
type Config struct {
	SampleIntervalTicks int
	LEDIntervalTicks    int
	WatchdogTicks       int
	DetectorEnabled     bool
}

// Lines groups the digital lines the machine drives.
type Lines struct {
	LED    *gpioline.Actuator
	Reset  *gpioline.Actuator // control line, asserted on suspension
	NTCEn  *gpioline.Actuator // channel enable, cleared on watchdog timeout
	Button *gpioline.Actuator // optional, nil when the board has no button
}

// Machine owns all acquisition state: the tick counters, the reading window,
// the reading counter and the sampling flag. It is not safe for concurrent
// use; the single tick loop is its only caller.
type Machine struct {
	cfg      Config
	conv     adc.Converter
	window   *detect.Window
	det      detect.Detector
	notifier *telemetry.Notifier
	lines    Lines

	state         State
	ledCounter    int
	sampleCounter int
	watchdog      int
	readingNumber uint32

	// StateHook, when set, observes every state transition.
	StateHook func(s State, reason string)
}

func New(cfg Config, conv adc.Converter, window *detect.Window, det detect.Detector, notifier *telemetry.Notifier, lines Lines) *Machine {
	return &Machine{
		cfg:      cfg,
		conv:     conv,
		window:   window,
		det:      det,
		notifier: notifier,
		lines:    lines,
		state:    Sampling,
	}
}

func (m *Machine) State() State {
	return m.state
}

// Tick advances the machine by one scheduler period. Errors returned here
// mean the stack is in an unknown state and the process should halt.
func (m *Machine) Tick() error {
	m.ledCounter++
	if m.ledCounter >= m.cfg.LEDIntervalTicks {
		if err := m.lines.LED.Toggle(); err != nil {
			return fmt.Errorf("led toggle: %w", err)
		}
		m.ledCounter = 0
	}

	if m.lines.Button != nil {
		toggled, err := m.lines.Button.PollButton()
		if err != nil {
			return fmt.Errorf("button poll: %w", err)
		}
		if toggled {
			log.Printf("acquire: button toggled line to %v", m.lines.Button.Level())
		}
	}

	if m.state != Sampling {
		// A round triggered just before suspension may still complete;
		// its result is dropped, as is its buffer.
		m.discardCompletions()
		return nil
	}

	m.watchdog++
	if m.watchdog >= m.cfg.WatchdogTicks {
		return m.suspendWatchdog()
	}

	m.sampleCounter++
	if m.sampleCounter >= m.cfg.SampleIntervalTicks {
		if err := m.conv.Trigger(); err != nil {
			if errors.Is(err, adc.ErrBusy) {
				log.Printf("acquire: conversion trigger skipped: %v", err)
			} else {
				return fmt.Errorf("conversion trigger: %w", err)
			}
		}
		m.sampleCounter = 0
	}

	return m.drainCompletions()
}

func (m *Machine) drainCompletions() error {
	for {
		select {
		case c := <-m.conv.Completions():
			if err := m.handleCompletion(c); err != nil {
				return err
			}
			if m.state != Sampling {
				return nil
			}
		default:
			return nil
		}
	}
}

func (m *Machine) discardCompletions() {
	for {
		select {
		case <-m.conv.Completions():
		default:
			return
		}
	}
}

func (m *Machine) handleCompletion(c adc.Completion) error {
	if c.Err != nil {
		return fmt.Errorf("conversion failed: %w", c.Err)
	}

	m.readingNumber++
	r := ntc.Reading{Number: m.readingNumber, NTC1: c.Values[0], NTC2: c.Values[1]}
	log.Printf("acquire: reading #%d: NTC1: %d, NTC2: %d", r.Number, r.NTC1, r.NTC2)

	if err := m.notifier.Notify(r); err != nil {
		return err
	}

	// Hand the completed buffer straight back so one buffer is always armed
	// for the next round.
	if err := m.conv.Arm(c.BufferID); err != nil {
		return fmt.Errorf("re-arm buffer %d: %w", c.BufferID, err)
	}

	if !m.cfg.DetectorEnabled {
		return nil
	}

	for ch := 0; ch < ntc.NumChannels; ch++ {
		m.window.Push(ch, r.Value(ch))
	}
	if !m.window.IsFull() {
		return nil
	}

	verdicts := m.window.EvaluateAndReset(m.det)
	for ch, v := range verdicts {
		log.Printf("acquire: channel %d: matched=%v count=%d ref=%d", ch, v.Matched, v.MatchCount, v.Reference)
	}
	if detect.AnyMatched(verdicts) {
		if err := m.lines.Reset.Set(true); err != nil {
			return fmt.Errorf("assert control line: %w", err)
		}
		m.suspend(ReasonConsensus)
	}
	return nil
}

func (m *Machine) suspendWatchdog() error {
	if err := m.lines.Reset.Set(true); err != nil {
		return fmt.Errorf("assert control line: %w", err)
	}
	if err := m.lines.NTCEn.Set(false); err != nil {
		return fmt.Errorf("clear channel enable: %w", err)
	}
	m.suspend(ReasonWatchdog)
	return nil
}

// suspend is terminal: there is no transition back to Sampling short of a
// restart.
func (m *Machine) suspend(reason string) {
	m.state = Suspended
	log.Printf("acquire: sampling suspended (%s)", reason)
	if m.StateHook != nil {
		m.StateHook(Suspended, reason)
	}
}
