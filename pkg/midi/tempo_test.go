package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timeEpsilon = 1e-9

func TestTempoMap_SynthesizedAnchor(t *testing.T) {
	// no explicit tempo: a single 120 BPM anchor at pulse 0
	m := newTempoMap(480, nil)
	require.Len(t, m.points, 1)
	assert.Equal(t, uint64(0), m.points[0].Pulse)
	assert.Equal(t, 0.5, m.points[0].SecondsPerBeat)

	// first explicit tempo after pulse 0: the anchor is synthesized in front
	m = newTempoMap(480, []Breakpoint{{Pulse: 960, SecondsPerBeat: 0.25}})
	require.Len(t, m.points, 2)
	assert.Equal(t, 0.5, m.points[0].SecondsPerBeat)
	assert.InDelta(t, 1.0, m.points[1].Time, timeEpsilon) // 960 pulses at 0.5 s/beat

	// first explicit tempo at pulse 0: no synthesized anchor
	m = newTempoMap(480, []Breakpoint{{Pulse: 0, SecondsPerBeat: 0.25}})
	require.Len(t, m.points, 1)
	assert.Equal(t, 0.25, m.points[0].SecondsPerBeat)
}

func TestTempoMap_TimeDerivation(t *testing.T) {
	m := newTempoMap(480, []Breakpoint{
		{Pulse: 0, SecondsPerBeat: 0.5},
		{Pulse: 480, SecondsPerBeat: 0.25},
		{Pulse: 960, SecondsPerBeat: 1.0},
	})

	require.Len(t, m.points, 3)
	assert.InDelta(t, 0.0, m.points[0].Time, timeEpsilon)
	assert.InDelta(t, 0.5, m.points[1].Time, timeEpsilon)
	assert.InDelta(t, 0.75, m.points[2].Time, timeEpsilon)
	assert.Equal(t, 1.0, m.slowest)
}

func TestTempoMap_IndexAtTime(t *testing.T) {
	m := newTempoMap(480, []Breakpoint{
		{Pulse: 0, SecondsPerBeat: 0.5},
		{Pulse: 480, SecondsPerBeat: 0.25}, // time 0.5
	})

	assert.Equal(t, 0, m.indexAtTime(0))
	assert.Equal(t, 0, m.indexAtTime(0.49))
	assert.Equal(t, 1, m.indexAtTime(0.5))
	assert.Equal(t, 1, m.indexAtTime(1000)) // clamped to the last breakpoint

	assert.Equal(t, 0.25, m.at(3.0).SecondsPerBeat)
}

func TestTempoMap_DeltaSeconds(t *testing.T) {
	m := newTempoMap(480, []Breakpoint{
		{Pulse: 0, SecondsPerBeat: 0.5},
		{Pulse: 480, SecondsPerBeat: 0.25},
	})

	// entirely before the second breakpoint
	sec, idx := m.deltaSeconds(0, 240, 0)
	assert.InDelta(t, 0.25, sec, timeEpsilon)
	assert.Equal(t, 0, idx)

	// lands exactly on the breakpoint, index advances
	sec, idx = m.deltaSeconds(0, 480, 0)
	assert.InDelta(t, 0.5, sec, timeEpsilon)
	assert.Equal(t, 1, idx)

	// straddles the tempo change mid-interval
	sec, idx = m.deltaSeconds(240, 480, 0)
	assert.InDelta(t, 0.25+0.125, sec, timeEpsilon)
	assert.Equal(t, 1, idx)

	// starting past the last breakpoint
	sec, idx = m.deltaSeconds(960, 480, 1)
	assert.InDelta(t, 0.25, sec, timeEpsilon)
	assert.Equal(t, 1, idx)
}

func TestTempoMap_DeltaSecondsReentrant(t *testing.T) {
	m := newTempoMap(480, []Breakpoint{
		{Pulse: 0, SecondsPerBeat: 0.5},
		{Pulse: 480, SecondsPerBeat: 0.25},
	})

	before := make([]Breakpoint, len(m.points))
	copy(before, m.points)

	// probing far ahead must not mutate the map
	_, _ = m.deltaSeconds(0, 10000, 0)
	assert.Equal(t, before, m.points)

	// and the same call repeated yields the same answer
	a, _ := m.deltaSeconds(0, 10000, 0)
	b, _ := m.deltaSeconds(0, 10000, 0)
	assert.Equal(t, a, b)
}

func TestTempoMap_Scaled(t *testing.T) {
	m := newTempoMap(480, []Breakpoint{
		{Pulse: 0, SecondsPerBeat: 0.5},
		{Pulse: 480, SecondsPerBeat: 0.25},
	})

	fast, err := m.scaled(2)
	require.NoError(t, err)
	require.Len(t, fast.points, 2)

	assert.InDelta(t, 0.25, fast.points[0].SecondsPerBeat, timeEpsilon)
	assert.InDelta(t, 0.125, fast.points[1].SecondsPerBeat, timeEpsilon)
	assert.InDelta(t, 0.25, fast.points[1].Time, timeEpsilon)
	assert.InDelta(t, 0.25, fast.slowest, timeEpsilon)

	// the unscaled map is untouched
	assert.Equal(t, 0.5, m.points[0].SecondsPerBeat)
	assert.Equal(t, 0.5, m.slowest)
}

func TestTempoMap_ScaledInvalidMultiplier(t *testing.T) {
	m := newTempoMap(480, nil)

	_, err := m.scaled(0)
	assert.ErrorIs(t, err, ErrUnexpectedData)

	_, err = m.scaled(-1)
	assert.ErrorIs(t, err, ErrUnexpectedData)
}
