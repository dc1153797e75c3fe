package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDSampler string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string

	// Topics
	TopicReadings string
	TopicState    string

	// Notification payload format: "binary" (4-byte LE pair) or "text"
	PayloadFormat string

	// Converter hardware
	I2CBus     string // empty = first available bus
	ADCI2CAddr uint16

	// GPIO pins (names as understood by periph gpioreg)
	LEDPin    string
	ResetPin  string
	NTCEnPin  string
	ButtonPin string // empty = no button variant

	// Timing
	TickInterval        int // milliseconds, main loop cadence
	SampleIntervalTicks int // trigger a conversion every N ticks
	LEDIntervalTicks    int // toggle the LED every N ticks
	WatchdogTimeout     int // milliseconds until forced suspension
	DebounceDelay       int // milliseconds, button settle time

	// Consensus detector
	ReadingsLimit     int // window capacity per channel
	MatchThresholdMin int
	MatchThresholdMax int
	DetectorEnabled   bool

	// Web server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config pre-filled with the design constants. The config
// file only needs to override deployment-specific keys.
func defaults() *Config {
	return &Config{
		MQTTClientIDSampler: "ntc-sampler",
		MQTTClientIDConsole: "ntc-console",
		MQTTClientIDWeb:     "ntc-web",
		MQTTClientIDDisplay: "ntc-display",

		TopicReadings: "ntc/readings",
		TopicState:    "ntc/state",

		PayloadFormat: "binary",

		ADCI2CAddr: 0x48,

		LEDPin:   "GPIO24",
		ResetPin: "GPIO13",
		NTCEnPin: "GPIO29",

		TickInterval:        100,
		SampleIntervalTicks: 1,
		LEDIntervalTicks:    2,
		WatchdogTimeout:     10000,
		DebounceDelay:       50,

		ReadingsLimit:     15,
		MatchThresholdMin: 7,
		MatchThresholdMax: 8,
		DetectorEnabled:   true,

		WebServerPort: 8080,

		DisplayUpdateInterval: 500,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_SAMPLER":
		c.MQTTClientIDSampler = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_READINGS":
		c.TopicReadings = value
	case "TOPIC_STATE":
		c.TopicState = value

	// Payload format
	case "PAYLOAD_FORMAT":
		if value != "binary" && value != "text" {
			return fmt.Errorf("PAYLOAD_FORMAT must be \"binary\" or \"text\", got %q", value)
		}
		c.PayloadFormat = value

	// Converter hardware
	case "I2C_BUS":
		c.I2CBus = value
	case "ADC_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid ADC_I2C_ADDR %q: %w", value, err)
		}
		c.ADCI2CAddr = uint16(addr)

	// GPIO pins
	case "LED_PIN":
		c.LEDPin = value
	case "RESET_PIN":
		c.ResetPin = value
	case "NTC_EN_PIN":
		c.NTCEnPin = value
	case "BUTTON_PIN":
		c.ButtonPin = value

	// Timing
	case "TICK_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL %q: %w", value, err)
		}
		c.TickInterval = interval
	case "SAMPLE_INTERVAL_TICKS":
		ticks, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL_TICKS %q: %w", value, err)
		}
		c.SampleIntervalTicks = ticks
	case "LED_INTERVAL_TICKS":
		ticks, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LED_INTERVAL_TICKS %q: %w", value, err)
		}
		c.LEDIntervalTicks = ticks
	case "WATCHDOG_TIMEOUT":
		timeout, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WATCHDOG_TIMEOUT %q: %w", value, err)
		}
		c.WatchdogTimeout = timeout
	case "DEBOUNCE_DELAY":
		delay, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DEBOUNCE_DELAY %q: %w", value, err)
		}
		c.DebounceDelay = delay

	// Consensus detector
	case "READINGS_LIMIT":
		limit, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid READINGS_LIMIT %q: %w", value, err)
		}
		c.ReadingsLimit = limit
	case "MATCH_THRESHOLD_MIN":
		minVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MATCH_THRESHOLD_MIN %q: %w", value, err)
		}
		c.MatchThresholdMin = minVal
	case "MATCH_THRESHOLD_MAX":
		maxVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MATCH_THRESHOLD_MAX %q: %w", value, err)
		}
		c.MatchThresholdMax = maxVal
	case "DETECTOR_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DETECTOR_ENABLED %q: %w", value, err)
		}
		c.DetectorEnabled = enabled

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set and consistent.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %d", c.TickInterval)
	}
	if c.SampleIntervalTicks <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL_TICKS must be positive, got %d", c.SampleIntervalTicks)
	}
	if c.LEDIntervalTicks <= 0 {
		return fmt.Errorf("LED_INTERVAL_TICKS must be positive, got %d", c.LEDIntervalTicks)
	}
	if c.WatchdogTimeout <= 0 {
		return fmt.Errorf("WATCHDOG_TIMEOUT must be positive, got %d", c.WatchdogTimeout)
	}
	if c.ReadingsLimit < 1 {
		return fmt.Errorf("READINGS_LIMIT must be at least 1, got %d", c.ReadingsLimit)
	}
	if c.MatchThresholdMin < 1 {
		return fmt.Errorf("MATCH_THRESHOLD_MIN must be at least 1, got %d", c.MatchThresholdMin)
	}
	if c.MatchThresholdMax < c.MatchThresholdMin {
		return fmt.Errorf("MATCH_THRESHOLD_MAX (%d) must be >= MATCH_THRESHOLD_MIN (%d)",
			c.MatchThresholdMax, c.MatchThresholdMin)
	}
	if c.MatchThresholdMax > c.ReadingsLimit {
		return fmt.Errorf("MATCH_THRESHOLD_MAX (%d) must be <= READINGS_LIMIT (%d)",
			c.MatchThresholdMax, c.ReadingsLimit)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
