package ntc

// NumChannels is the number of NTC inputs the sampler digitizes per round.
const NumChannels = 2

// Reading represents one completed conversion round: one raw value per channel.
type Reading struct {
	Number uint32 `json:"number"` // monotonic reading counter

	NTC1 int16 `json:"ntc1"` // raw 10-bit code, channel 0
	NTC2 int16 `json:"ntc2"` // raw 10-bit code, channel 1
}

// Value returns the raw code for the given channel index.
func (r Reading) Value(channel int) int16 {
	if channel == 0 {
		return r.NTC1
	}
	return r.NTC2
}

// Status describes the acquisition state for observers (console, web, display).
type Status struct {
	State  string `json:"state"`  // "sampling" or "suspended"
	Reason string `json:"reason"` // "watchdog", "consensus", or "" while sampling
}
