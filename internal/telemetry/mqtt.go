package telemetry

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTTransport adapts a paho client to the Transport capability. Payloads
// are published retained so a late subscriber immediately sees the latest
// reading pair.
type MQTTTransport struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

func NewMQTTTransport(client mqtt.Client, topic string) *MQTTTransport {
	// The wait bound keeps a slow broker from stalling the sampling tick.
	return &MQTTTransport{client: client, topic: topic, timeout: 50 * time.Millisecond}
}

func (t *MQTTTransport) Connected() bool {
	return t.client.IsConnectionOpen()
}

func (t *MQTTTransport) Notify(payload []byte) error {
	token := t.client.Publish(t.topic, 0, true, payload)
	if !token.WaitTimeout(t.timeout) {
		return fmt.Errorf("%w: publish still pending after %v", ErrNotReady, t.timeout)
	}
	if err := token.Error(); err != nil {
		if errors.Is(err, mqtt.ErrNotConnected) {
			return fmt.Errorf("%w: %v", ErrNotReady, err)
		}
		return err
	}
	return nil
}
