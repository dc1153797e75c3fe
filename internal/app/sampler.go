package app

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/ntc_monitor/internal/acquire"
	"github.com/relabs-tech/ntc_monitor/internal/adc"
	"github.com/relabs-tech/ntc_monitor/internal/config"
	"github.com/relabs-tech/ntc_monitor/internal/detect"
	"github.com/relabs-tech/ntc_monitor/internal/gpioline"
	"github.com/relabs-tech/ntc_monitor/internal/ntc"
	"github.com/relabs-tech/ntc_monitor/internal/telemetry"
)

// RunSampler wires the converter, the digital lines, the detector and the
// MQTT notifier together and runs the acquisition tick loop. With useMock
// set it runs against an in-process converter and fake lines instead of
// the ADS1115 and periph GPIO.
func RunSampler(useMock bool) error {
	cfg := config.Get()
	log.Println("starting NTC sampler (NTC → MQTT)")

	var (
		conv  adc.Converter
		lines acquire.Lines
		err   error
	)
	if useMock {
		log.Println("sampler: using mock converter and fake lines")
		conv, lines, err = mockHardware(cfg)
	} else {
		conv, lines, err = openHardware(cfg)
	}
	if err != nil {
		log.Fatalf("hardware init failed: %v", err)
		return err
	}
	defer conv.Close()

	// Two single-ended channels at the converter's 10-bit configuration.
	channels := [adc.BufferSize]adc.Channel{
		{Index: 0, InputPin: "AIN0"},
		{Index: 1, InputPin: "AIN1"},
	}
	if err := conv.Configure(channels, 10); err != nil {
		log.Fatalf("converter configuration failed: %v", err)
		return err
	}

	// Arming both buffers up front keeps the pipeline primed for continuous
	// double-buffered operation.
	if err := conv.Arm(0); err != nil {
		log.Fatalf("arming buffer 0 failed: %v", err)
		return err
	}
	if err := conv.Arm(1); err != nil {
		log.Fatalf("arming buffer 1 failed: %v", err)
		return err
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSampler)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("sampler: connected to MQTT broker at %s", cfg.MQTTBroker)

	format, err := telemetry.ParseFormat(cfg.PayloadFormat)
	if err != nil {
		return err
	}
	notifier := telemetry.NewNotifier(telemetry.NewMQTTTransport(client, cfg.TopicReadings), format)

	window := detect.NewWindow(cfg.ReadingsLimit)
	det := detect.Detector{MinMatches: cfg.MatchThresholdMin, MaxMatches: cfg.MatchThresholdMax}

	machine := acquire.New(acquire.Config{
		SampleIntervalTicks: cfg.SampleIntervalTicks,
		LEDIntervalTicks:    cfg.LEDIntervalTicks,
		WatchdogTicks:       cfg.WatchdogTimeout / cfg.TickInterval,
		DetectorEnabled:     cfg.DetectorEnabled,
	}, conv, window, det, notifier, lines)

	machine.StateHook = func(s acquire.State, reason string) {
		payload, err := json.Marshal(ntc.Status{State: s.String(), Reason: reason})
		if err != nil {
			log.Printf("sampler: status marshal error: %v", err)
			return
		}
		client.Publish(cfg.TopicState, 0, true, payload)
	}
	// Publish the initial state so observers don't have to wait for a
	// transition.
	machine.StateHook(machine.State(), "")

	log.Printf("sampler: entering acquisition loop (tick %d ms, watchdog %d ms)",
		cfg.TickInterval, cfg.WatchdogTimeout)

	ticker := time.NewTicker(time.Duration(cfg.TickInterval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if err := machine.Tick(); err != nil {
			// Continuing with the stack in an unknown state risks bad
			// readings reaching the control line.
			return err
		}
	}
	return nil
}

// openHardware initializes periph and opens the ADS1115 and the GPIO lines.
func openHardware(cfg *config.Config) (adc.Converter, acquire.Lines, error) {
	if _, err := host.Init(); err != nil {
		return nil, acquire.Lines{}, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, acquire.Lines{}, fmt.Errorf("open I2C bus: %w", err)
	}
	conv, err := adc.NewADS1115(bus, cfg.ADCI2CAddr)
	if err != nil {
		bus.Close()
		return nil, acquire.Lines{}, err
	}

	lines, err := buildLines(cfg, gpioline.Open)
	if err != nil {
		conv.Close()
		return nil, acquire.Lines{}, err
	}
	return conv, lines, nil
}

// mockHardware builds the same surface from in-process fakes.
func mockHardware(cfg *config.Config) (adc.Converter, acquire.Lines, error) {
	open := func(string) (gpioline.Line, error) { return gpioline.NewFake(false), nil }
	lines, err := buildLines(cfg, open)
	if err != nil {
		return nil, acquire.Lines{}, err
	}
	return adc.NewMock(mockSource), lines, nil
}

// buildLines configures the startup line states: reset low, channel enable
// high, LED off.
func buildLines(cfg *config.Config, open func(string) (gpioline.Line, error)) (acquire.Lines, error) {
	debounce := time.Duration(cfg.DebounceDelay) * time.Millisecond

	led, err := openActuator(open, cfg.LEDPin, false, debounce)
	if err != nil {
		return acquire.Lines{}, err
	}
	reset, err := openActuator(open, cfg.ResetPin, false, debounce)
	if err != nil {
		return acquire.Lines{}, err
	}
	ntcEn, err := openActuator(open, cfg.NTCEnPin, true, debounce)
	if err != nil {
		return acquire.Lines{}, err
	}

	lines := acquire.Lines{LED: led, Reset: reset, NTCEn: ntcEn}
	if cfg.ButtonPin != "" {
		button, err := openActuator(open, cfg.ButtonPin, true, debounce)
		if err != nil {
			return acquire.Lines{}, err
		}
		lines.Button = button
		log.Printf("sampler: button enabled on %s (debounce %v)", cfg.ButtonPin, debounce)
	}
	return lines, nil
}

func openActuator(open func(string) (gpioline.Line, error), name string, initial bool, debounce time.Duration) (*gpioline.Actuator, error) {
	line, err := open(name)
	if err != nil {
		return nil, fmt.Errorf("line %s: %w", name, err)
	}
	act, err := gpioline.NewActuator(line, initial, debounce)
	if err != nil {
		return nil, fmt.Errorf("line %s: %w", name, err)
	}
	return act, nil
}

// mockSource produces synthetic NTC codes: a slow sine ride around mid-scale
// with a fixed offset between the channels. Near the peaks the quantized
// codes flatten out, which exercises the consensus detector end to end.
func mockSource(round uint32) [adc.BufferSize]int16 {
	base := int16(512 + 80*math.Sin(float64(round)/25))
	return [adc.BufferSize]int16{base, base + 37}
}
