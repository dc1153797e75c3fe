package telemetry

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/ntc_monitor/internal/ntc"
)

type fakeTransport struct {
	connected bool
	err       error
	payloads  [][]byte
}

func (f *fakeTransport) Connected() bool { return f.connected }

func (f *fakeTransport) Notify(p []byte) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

func TestEncodeBinary_LittleEndianPair(t *testing.T) {
	// 0x0201 and 0x0403: low byte first per value.
	b := EncodeBinary(ntc.Reading{NTC1: 0x0201, NTC2: 0x0403})
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, b)

	// Negative codes keep their two's-complement representation.
	b = EncodeBinary(ntc.Reading{NTC1: -2, NTC2: 1023})
	assert.Equal(t, []byte{0xFE, 0xFF, 0xFF, 0x03}, b)
}

func TestDecodeBinary_Roundtrip(t *testing.T) {
	want := ntc.Reading{NTC1: -512, NTC2: 1023}

	got, err := DecodeBinary(EncodeBinary(want))
	require.NoError(t, err)
	assert.Equal(t, want.NTC1, got.NTC1)
	assert.Equal(t, want.NTC2, got.NTC2)

	_, err = DecodeBinary([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEncodeText_Format(t *testing.T) {
	b := EncodeText(ntc.Reading{NTC1: 1023, NTC2: -1})

	assert.Equal(t, "N1:1023,N2:-1\r\n", string(b))
	assert.NotContains(t, string(b), "\x00")

	// Worst case stays inside the 32-byte notification budget.
	worst := EncodeText(ntc.Reading{NTC1: -32768, NTC2: -32768})
	assert.LessOrEqual(t, len(worst), 32)
}

func TestDecodeText_Roundtrip(t *testing.T) {
	got, err := DecodeText(EncodeText(ntc.Reading{NTC1: 7, NTC2: -300}))
	require.NoError(t, err)
	assert.Equal(t, int16(7), got.NTC1)
	assert.Equal(t, int16(-300), got.NTC2)

	_, err = DecodeText([]byte("garbage"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("binary")
	require.NoError(t, err)
	assert.Equal(t, Binary, f)

	f, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, Text, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestNotifier_NoopWhileDisconnected(t *testing.T) {
	tr := &fakeTransport{connected: false}
	n := NewNotifier(tr, Binary)

	require.NoError(t, n.Notify(ntc.Reading{NTC1: 1, NTC2: 2}))
	assert.Empty(t, tr.payloads)

	// Emission resumes immediately on attach, no history replay.
	tr.connected = true
	require.NoError(t, n.Notify(ntc.Reading{NTC1: 3, NTC2: 4}))
	require.Len(t, tr.payloads, 1)
	assert.True(t, bytes.Equal(tr.payloads[0], EncodeBinary(ntc.Reading{NTC1: 3, NTC2: 4})))
}

func TestNotifier_TransientFailureIsSwallowed(t *testing.T) {
	tr := &fakeTransport{connected: true, err: fmt.Errorf("%w: peer busy", ErrNotReady)}
	n := NewNotifier(tr, Binary)

	assert.NoError(t, n.Notify(ntc.Reading{NTC1: 1, NTC2: 2}))
}

func TestNotifier_UnexpectedFailureSurfaces(t *testing.T) {
	boom := errors.New("transport wedged")
	tr := &fakeTransport{connected: true, err: boom}
	n := NewNotifier(tr, Text)

	err := n.Notify(ntc.Reading{NTC1: 1, NTC2: 2})
	assert.ErrorIs(t, err, boom)
}
