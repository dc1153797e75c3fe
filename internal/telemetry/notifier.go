// Package telemetry formats reading pairs and emits them through a
// notification transport while a peer is attached. Lost notifications are
// acceptable; each tick's reading supersedes the last.
package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"

	"github.com/relabs-tech/ntc_monitor/internal/ntc"
)

// Format selects the notification payload encoding.
type Format int

const (
	// Binary is two little-endian int16 raw codes: ntc1 lo, ntc1 hi, ntc2 lo, ntc2 hi.
	Binary Format = iota
	// Text is the readable line "N1:<int>,N2:<int>\r\n", null-free, <= 32 bytes.
	Text
)

// ParseFormat maps a config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "binary":
		return Binary, nil
	case "text":
		return Text, nil
	}
	return 0, fmt.Errorf("telemetry: unknown payload format %q", s)
}

// ErrNotReady marks transient transport conditions: the peer cannot take
// another notification right now or the connection dropped mid-send. Such
// failures are swallowed, not retried.
var ErrNotReady = errors.New("telemetry: transport not ready")

// Transport is the notification capability the sampler emits through.
type Transport interface {
	Connected() bool
	Notify(payload []byte) error
}

// Notifier serializes readings and hands them to the transport.
type Notifier struct {
	tr           Transport
	format       Format
	wasConnected bool
}

func NewNotifier(tr Transport, format Format) *Notifier {
	return &Notifier{tr: tr, format: format}
}

// Notify emits one reading. A disconnected peer is a no-op and transient
// transport failures are dropped; anything else is returned for the caller
// to treat as fatal.
func (n *Notifier) Notify(r ntc.Reading) error {
	if !n.tr.Connected() {
		if n.wasConnected {
			log.Println("telemetry: peer detached, notifications paused")
			n.wasConnected = false
		}
		return nil
	}
	if !n.wasConnected {
		log.Println("telemetry: peer attached, notifications resumed")
		n.wasConnected = true
	}

	if err := n.tr.Notify(Encode(n.format, r)); err != nil {
		if errors.Is(err, ErrNotReady) {
			log.Printf("telemetry: notification dropped: %v", err)
			return nil
		}
		return fmt.Errorf("telemetry: notify: %w", err)
	}
	return nil
}

// Encode serializes a reading in the given format.
func Encode(f Format, r ntc.Reading) []byte {
	if f == Text {
		return EncodeText(r)
	}
	return EncodeBinary(r)
}

// EncodeBinary packs both raw codes little-endian.
func EncodeBinary(r ntc.Reading) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b[0:2], uint16(r.NTC1))
	binary.LittleEndian.PutUint16(b[2:4], uint16(r.NTC2))
	return b
}

// DecodeBinary is the observer-side inverse of EncodeBinary.
func DecodeBinary(b []byte) (ntc.Reading, error) {
	if len(b) != 4 {
		return ntc.Reading{}, fmt.Errorf("telemetry: binary payload must be 4 bytes, got %d", len(b))
	}
	return ntc.Reading{
		NTC1: int16(binary.LittleEndian.Uint16(b[0:2])),
		NTC2: int16(binary.LittleEndian.Uint16(b[2:4])),
	}, nil
}

// EncodeText renders the readable variant.
func EncodeText(r ntc.Reading) []byte {
	return []byte(fmt.Sprintf("N1:%d,N2:%d\r\n", r.NTC1, r.NTC2))
}

// DecodeText parses the readable variant.
func DecodeText(b []byte) (ntc.Reading, error) {
	var r ntc.Reading
	if _, err := fmt.Sscanf(string(b), "N1:%d,N2:%d", &r.NTC1, &r.NTC2); err != nil {
		return ntc.Reading{}, fmt.Errorf("telemetry: bad text payload %q: %w", b, err)
	}
	return r, nil
}

// Decode parses a payload in the given format.
func Decode(f Format, b []byte) (ntc.Reading, error) {
	if f == Text {
		return DecodeText(b)
	}
	return DecodeBinary(b)
}
