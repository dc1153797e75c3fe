package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/ntc_monitor/internal/ntc"
)

func testDetector() Detector {
	return Detector{MinMatches: 7, MaxMatches: 8}
}

// windowWith builds a 15-value window where exactly matches values equal the
// reference (the first element); the remainder are distinct fillers.
func windowWith(matches int) []int16 {
	values := make([]int16, 15)
	for i := 0; i < matches; i++ {
		values[i] = 5
	}
	for i := matches; i < 15; i++ {
		values[i] = int16(100 + i)
	}
	return values
}

func TestEvaluate_AllEqualOvershootsBand(t *testing.T) {
	v := testDetector().Evaluate(windowWith(15))

	assert.Equal(t, 15, v.MatchCount)
	assert.False(t, v.Matched)
}

func TestEvaluate_BandIsInclusive(t *testing.T) {
	for _, matches := range []int{7, 8} {
		v := testDetector().Evaluate(windowWith(matches))

		assert.Equal(t, matches, v.MatchCount)
		assert.True(t, v.Matched, "match count %d should be in band", matches)
	}
}

func TestEvaluate_BelowBand(t *testing.T) {
	for matches := 1; matches <= 6; matches++ {
		v := testDetector().Evaluate(windowWith(matches))

		assert.Equal(t, matches, v.MatchCount)
		assert.False(t, v.Matched, "match count %d should be below band", matches)
	}
}

func TestEvaluate_StuckSensorScenario(t *testing.T) {
	// 8 fives then 7 threes: reference 5 repeats exactly 8 times.
	values := []int16{5, 5, 5, 5, 5, 5, 5, 5, 3, 3, 3, 3, 3, 3, 3}

	v := testDetector().Evaluate(values)

	assert.Equal(t, int16(5), v.Reference)
	assert.Equal(t, 8, v.MatchCount)
	assert.True(t, v.Matched)
}

func TestEvaluate_UniformRamp(t *testing.T) {
	values := make([]int16, 15)
	for i := range values {
		values[i] = int16(i)
	}

	v := testDetector().Evaluate(values)

	assert.Equal(t, 1, v.MatchCount, "only the reference matches itself")
	assert.False(t, v.Matched)
}

func TestEvaluate_EmptyWindow(t *testing.T) {
	v := testDetector().Evaluate(nil)

	assert.Equal(t, Verdict{}, v)
}

func TestAnyMatched(t *testing.T) {
	var verdicts [ntc.NumChannels]Verdict
	assert.False(t, AnyMatched(verdicts))

	// One matching channel is sufficient.
	verdicts[1].Matched = true
	assert.True(t, AnyMatched(verdicts))
}
