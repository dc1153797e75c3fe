// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/ntc_monitor/internal/config"
	"github.com/relabs-tech/ntc_monitor/internal/ntc"
	"github.com/relabs-tech/ntc_monitor/internal/telemetry"
)

// RunConsole subscribes to the sampler's topics and prints every reading and
// state change to stdout.
func RunConsole() error {
	cfg := config.Get()

	format, err := telemetry.ParseFormat(cfg.PayloadFormat)
	if err != nil {
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to readings
	readingsToken := client.Subscribe(cfg.TopicReadings, 0, func(_ mqtt.Client, msg mqtt.Message) {
		r, err := telemetry.Decode(format, msg.Payload())
		if err != nil {
			log.Printf("console: reading decode error: %v", err)
			return
		}

		fmt.Printf("[NTC]   N1=%5d  N2=%5d\n", r.NTC1, r.NTC2)
	})
	readingsToken.Wait()
	if readingsToken.Error() != nil {
		return readingsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicReadings)

	// Subscribe to acquisition state
	stateToken := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s ntc.Status
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: status unmarshal error: %v", err)
			return
		}

		if s.Reason != "" {
			fmt.Printf("[STATE] %s (%s)\n", s.State, s.Reason)
		} else {
			fmt.Printf("[STATE] %s\n", s.State)
		}
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicState)

	// Block until interrupted
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	client.Disconnect(250)
	log.Println("console: shutting down")
	return nil
}
