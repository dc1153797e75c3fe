package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/ntc_monitor/internal/config"
	"github.com/relabs-tech/ntc_monitor/internal/ntc"
	"github.com/relabs-tech/ntc_monitor/internal/telemetry"
)

// displayData holds the latest data for the OLED readout.
type displayData struct {
	mu sync.RWMutex

	reading     ntc.Reading
	haveReading bool

	status     ntc.Status
	haveStatus bool
}

// RunDisplay shows the latest reading pair and acquisition state on an
// ssd1306 OLED.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	format, err := telemetry.ParseFormat(cfg.PayloadFormat)
	if err != nil {
		return err
	}

	data := &displayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	readingsToken := client.Subscribe(cfg.TopicReadings, 0, func(_ mqtt.Client, msg mqtt.Message) {
		r, err := telemetry.Decode(format, msg.Payload())
		if err != nil {
			log.Printf("display: reading decode error: %v", err)
			return
		}
		data.mu.Lock()
		data.reading = r
		data.haveReading = true
		data.mu.Unlock()
	})
	readingsToken.Wait()
	if readingsToken.Error() != nil {
		return readingsToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicReadings)

	stateToken := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s ntc.Status
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: status unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.status = s
		data.haveStatus = true
		data.mu.Unlock()
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicState)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		snapshot := displayData{
			reading:     data.reading,
			haveReading: data.haveReading,
			status:      data.status,
			haveStatus:  data.haveStatus,
		}
		data.mu.RUnlock()

		if err := updateDisplay(dev, &snapshot); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func showSplash(dev *ssd1306.Dev) error {
	img := blankImage()
	drawer := newDrawer(img)

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte("NTC Monitor"))
	drawer.Dot = fixed.P(0, 39)
	drawer.DrawBytes([]byte("Waiting..."))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func updateDisplay(dev *ssd1306.Dev, data *displayData) error {
	img := blankImage()
	drawer := newDrawer(img)

	if !data.haveReading {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("NTC Monitor"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("N1: %5d", data.reading.NTC1)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("N2: %5d", data.reading.NTC2)))

		if data.haveStatus {
			drawer.Dot = fixed.P(0, 52)
			if data.status.Reason != "" {
				drawer.DrawBytes([]byte(fmt.Sprintf("%s (%s)", data.status.State, data.status.Reason)))
			} else {
				drawer.DrawBytes([]byte(data.status.State))
			}
		}
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func blankImage() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	return img
}

func newDrawer(img *image1bit.VerticalLSB) *font.Drawer {
	return &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
}
