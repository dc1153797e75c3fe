package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/ntc_monitor/internal/app"
	"github.com/relabs-tech/ntc_monitor/internal/config"
)

func main() {
	configPath := flag.String("config", "./ntc_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting ntc-monitor OLED display")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
