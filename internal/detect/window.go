package detect

import (
	"log"

	"github.com/relabs-tech/ntc_monitor/internal/ntc"
)

// Window holds the last readings per channel, up to a fixed capacity. Once
// full it must be evaluated, which always empties it again; there is no
// sliding overlap between evaluation cycles.
type Window struct {
	limit    int
	channels [ntc.NumChannels][]int16
}

// NewWindow allocates a window with the given per-channel capacity.
func NewWindow(limit int) *Window {
	w := &Window{limit: limit}
	for i := range w.channels {
		w.channels[i] = make([]int16, 0, limit)
	}
	return w
}

// Push appends a value to one channel. A push into a full window is dropped
// and reported; correct orchestration evaluates the window before that can
// happen.
func (w *Window) Push(channel int, value int16) bool {
	if len(w.channels[channel]) >= w.limit {
		log.Printf("detect: dropped sample %d, window full on channel %d", value, channel)
		return false
	}
	w.channels[channel] = append(w.channels[channel], value)
	return true
}

// Size returns the current fill of one channel.
func (w *Window) Size(channel int) int {
	return len(w.channels[channel])
}

// IsFull reports whether every channel has reached capacity.
func (w *Window) IsFull() bool {
	for i := range w.channels {
		if len(w.channels[i]) < w.limit {
			return false
		}
	}
	return true
}

// Reset empties all channels.
func (w *Window) Reset() {
	for i := range w.channels {
		w.channels[i] = w.channels[i][:0]
	}
}

// EvaluateAndReset runs the detector on every channel and empties the window
// regardless of the verdicts.
func (w *Window) EvaluateAndReset(d Detector) [ntc.NumChannels]Verdict {
	var verdicts [ntc.NumChannels]Verdict
	for i := range w.channels {
		verdicts[i] = d.Evaluate(w.channels[i])
	}
	w.Reset()
	return verdicts
}
