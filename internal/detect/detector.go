// Package detect holds the reading window and the consensus rule that flags
// a stuck or floating NTC channel from its raw sample history.
package detect

import (
	"github.com/relabs-tech/ntc_monitor/internal/ntc"
)

// Verdict is the outcome of evaluating one channel's full window.
type Verdict struct {
	Matched    bool  `json:"matched"`
	MatchCount int   `json:"match_count"` // samples equal to the reference, >= 1
	Reference  int16 `json:"reference"`   // first value of the window
}

// Detector flags a channel whose window repeats its first value a suspicious
// number of times. A fully constant window overshoots MaxMatches and a fully
// varying one stays below MinMatches; only the band in between reads as a
// floating or shorted sensor. Both bounds are inclusive and comparison is
// exact on the raw code.
type Detector struct {
	MinMatches int
	MaxMatches int
}

// Evaluate counts how many values equal the first one and applies the band.
func (d Detector) Evaluate(values []int16) Verdict {
	if len(values) == 0 {
		return Verdict{}
	}
	ref := values[0]
	count := 0
	for _, v := range values {
		if v == ref {
			count++
		}
	}
	return Verdict{
		Matched:    count >= d.MinMatches && count <= d.MaxMatches,
		MatchCount: count,
		Reference:  ref,
	}
}

// AnyMatched reports whether at least one channel matched. Channels are
// evaluated independently; one match is enough to act.
func AnyMatched(verdicts [ntc.NumChannels]Verdict) bool {
	for _, v := range verdicts {
		if v.Matched {
			return true
		}
	}
	return false
}
