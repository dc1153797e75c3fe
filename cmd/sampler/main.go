// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/ntc_monitor/internal/app"
	"github.com/relabs-tech/ntc_monitor/internal/config"
)

func main() {
	configPath := flag.String("config", "./ntc_config.txt", "path to configuration file")
	useMock := flag.Bool("mock", false, "run against an in-process converter instead of the ADS1115")
	flag.Parse()

	log.Println("starting ntc-monitor sampler (NTC → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSampler(*useMock); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
