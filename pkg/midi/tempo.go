package midi

import "fmt"

const defaultSecondsPerBeat = 0.5 // 120 BPM

// Breakpoint anchors a pulse position to the absolute elapsed time at that
// pulse and the beat duration in effect from there until the next breakpoint.
type Breakpoint struct {
	Pulse          uint64
	Time           float64
	SecondsPerBeat float64
}

// tempoMap is an immutable, pulse-ordered list of tempo breakpoints. A
// multiplier change publishes a fresh scaled map rather than mutating one
// in place, so track decoders holding a reference never observe a partially
// rebuilt map.
type tempoMap struct {
	pulsesPerBeat uint16
	points        []Breakpoint
	slowest       float64
}

// newTempoMap derives each breakpoint's absolute time from its predecessor
// and caches the slowest beat duration. Points must carry Pulse and
// SecondsPerBeat in non-decreasing pulse order; when the list is empty or
// starts after pulse zero, a 120 BPM anchor at pulse zero is synthesized.
func newTempoMap(pulsesPerBeat uint16, points []Breakpoint) *tempoMap {
	m := &tempoMap{pulsesPerBeat: pulsesPerBeat}

	if len(points) == 0 || points[0].Pulse > 0 {
		m.points = append(m.points, Breakpoint{SecondsPerBeat: defaultSecondsPerBeat})
	}

	for _, p := range points {
		if n := len(m.points); n > 0 {
			prev := m.points[n-1]
			p.Time = prev.Time + float64(p.Pulse-prev.Pulse)/float64(pulsesPerBeat)*prev.SecondsPerBeat
		} else {
			p.Time = 0
		}
		m.points = append(m.points, p)
	}

	m.slowest = slowestOf(m.points)
	return m
}

// scaled returns a copy compressed (m > 1) or expanded (m < 1) uniformly in
// the time domain, preserving the relative shape of the tempo curve.
func (t *tempoMap) scaled(multiplier float64) (*tempoMap, error) {
	if multiplier <= 0 {
		return nil, fmt.Errorf("%w - tempo multiplier %v must be positive", ErrUnexpectedData, multiplier)
	}

	out := &tempoMap{
		pulsesPerBeat: t.pulsesPerBeat,
		points:        make([]Breakpoint, len(t.points)),
	}

	var prevOrig, prevNew float64
	for i, p := range t.points {
		newTime := prevNew + (p.Time-prevOrig)/multiplier
		prevOrig, prevNew = p.Time, newTime

		out.points[i] = Breakpoint{
			Pulse:          p.Pulse,
			Time:           newTime,
			SecondsPerBeat: p.SecondsPerBeat / multiplier,
		}
	}

	out.slowest = slowestOf(out.points)
	return out, nil
}

// indexAtTime returns the index of the breakpoint at or immediately before
// the given elapsed time, clamped to the last breakpoint.
func (t *tempoMap) indexAtTime(at float64) int {
	i := 0
	for i+1 < len(t.points) && t.points[i+1].Time <= at {
		i++
	}
	return i
}

func (t *tempoMap) at(time float64) Breakpoint {
	return t.points[t.indexAtTime(time)]
}

// deltaSeconds converts deltaPulses starting at fromPulse into elapsed
// seconds, walking one breakpoint at a time so that tempo changes falling
// inside the interval are accumulated piecewise. The tempo index is taken
// and returned by value, never stored, so callers can probe ahead without
// corrupting their committed tempo state.
func (t *tempoMap) deltaSeconds(fromPulse, deltaPulses uint64, index int) (float64, int) {
	target := fromPulse + deltaPulses
	last := fromPulse
	elapsed := 0.0

	for index+1 < len(t.points) && t.points[index+1].Pulse <= target {
		next := t.points[index+1]
		if next.Pulse > last {
			elapsed += float64(next.Pulse-last) / float64(t.pulsesPerBeat) * t.points[index].SecondsPerBeat
			last = next.Pulse
		}
		index++
	}

	if target > last {
		elapsed += float64(target-last) / float64(t.pulsesPerBeat) * t.points[index].SecondsPerBeat
	}

	return elapsed, index
}

func slowestOf(points []Breakpoint) float64 {
	var max float64
	for _, p := range points {
		if p.SecondsPerBeat > max {
			max = p.SecondsPerBeat
		}
	}
	return max
}
