package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ntc_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\n"))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "ntc/readings", cfg.TopicReadings)
	assert.Equal(t, "binary", cfg.PayloadFormat)
	assert.Equal(t, 100, cfg.TickInterval)
	assert.Equal(t, 10000, cfg.WatchdogTimeout)
	assert.Equal(t, 15, cfg.ReadingsLimit)
	assert.Equal(t, 7, cfg.MatchThresholdMin)
	assert.Equal(t, 8, cfg.MatchThresholdMax)
	assert.True(t, cfg.DetectorEnabled)
	assert.Empty(t, cfg.ButtonPin)
}

func TestLoad_OverridesAndComments(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
# deployment overrides
MQTT_BROKER=tcp://broker:1883
PAYLOAD_FORMAT=text
READINGS_LIMIT=5
MATCH_THRESHOLD_MIN=2
MATCH_THRESHOLD_MAX=3
DETECTOR_ENABLED=false
BUTTON_PIN=GPIO17
ADC_I2C_ADDR=0x49
`))
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.PayloadFormat)
	assert.Equal(t, 5, cfg.ReadingsLimit)
	assert.False(t, cfg.DetectorEnabled)
	assert.Equal(t, "GPIO17", cfg.ButtonPin)
	assert.Equal(t, uint16(0x49), cfg.ADCI2CAddr)
}

func TestLoad_Rejections(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"missing broker", "READINGS_LIMIT=15\n"},
		{"unknown key", "MQTT_BROKER=x\nBOGUS=1\n"},
		{"bad format", "MQTT_BROKER=x\nPAYLOAD_FORMAT=xml\n"},
		{"bad bool", "MQTT_BROKER=x\nDETECTOR_ENABLED=maybe\n"},
		{"threshold above limit", "MQTT_BROKER=x\nREADINGS_LIMIT=5\nMATCH_THRESHOLD_MIN=4\nMATCH_THRESHOLD_MAX=6\n"},
		{"inverted band", "MQTT_BROKER=x\nMATCH_THRESHOLD_MIN=8\nMATCH_THRESHOLD_MAX=7\n"},
		{"zero tick", "MQTT_BROKER=x\nTICK_INTERVAL=0\n"},
		{"malformed line", "MQTT_BROKER=x\njust some words\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.contents))
			assert.Error(t, err)
		})
	}
}
