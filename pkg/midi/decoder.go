package midi

import (
	"errors"
	"fmt"
	"math"
)

const (
	headerTag = "MThd"
	trackTag  = "MTrk"
)

var (
	// ErrFmtNotSupported is a generic error reporting a file feature outside the decoder's scope.
	ErrFmtNotSupported = errors.New("format not supported")
	// ErrUnexpectedData is a generic error reporting that the parser encountered unexpected data.
	ErrUnexpectedData = errors.New("unexpected data content")
	// ErrOutOfBounds reports a read past the end of the data, i.e. a truncated or corrupt file.
	ErrOutOfBounds = errors.New("read past end of data")
)

// Decoder parses a Standard MIDI File held in memory and hands out one
// TrackDecoder per track chunk. All track decoders share the decoder's
// current tempo map snapshot; the file bytes themselves are never copied
// or mutated.
type Decoder struct {
	data          []byte
	pulsesPerBeat uint16
	tracks        []*TrackDecoder

	base       *tempoMap // multiplier 1, built from track zero
	tempo      *tempoMap // current snapshot
	multiplier float64
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data, multiplier: 1}
}

// Decode validates the header, discovers every track chunk and builds the
// tempo map from a pre-scan of track zero. It either fully succeeds or
// fails with no partial result.
func (d *Decoder) Decode() error {
	c := newCursor(d.data)

	tag, err := c.readChars(4)
	if err != nil {
		return err
	}
	if tag != headerTag {
		return fmt.Errorf("%w - expected %q chunk, got %q", ErrUnexpectedData, headerTag, tag)
	}

	headerSize, err := c.readUint32()
	if err != nil {
		return err
	}
	if headerSize != 6 {
		return fmt.Errorf("%w - expected header size to be 6, was %d", ErrUnexpectedData, headerSize)
	}

	c.advance(2) // file format type, unused

	trackCount, err := c.readUint16()
	if err != nil {
		return err
	}

	division, err := c.readUint16()
	if err != nil {
		return err
	}
	if division&0x8000 != 0 {
		return fmt.Errorf("%w - SMPTE time division", ErrFmtNotSupported)
	}
	d.pulsesPerBeat = division

	if trackCount == 0 {
		return fmt.Errorf("%w - file declares no tracks", ErrUnexpectedData)
	}

	d.tracks = nil
	for i := 0; i < int(trackCount); i++ {
		tag, err := c.readChars(4)
		if err != nil {
			return err
		}
		if tag != trackTag {
			return fmt.Errorf("%w - expected %q chunk for track %d, got %q", ErrUnexpectedData, trackTag, i, tag)
		}
		if _, err := c.readUint32(); err != nil { // declared length; the boundary is found by the marker scan
			return err
		}

		d.tracks = append(d.tracks, newTrackDecoder(d, c.clone()))

		if !c.scanPastSequence(endOfTrackMarker) {
			return fmt.Errorf("%w - track %d missing end-of-track marker", ErrUnexpectedData, i)
		}
	}

	base, err := d.buildTempoMap()
	if err != nil {
		return err
	}
	d.base = base
	d.tempo = base
	d.multiplier = 1

	for _, t := range d.tracks {
		t.Restart()
	}
	return nil
}

// buildTempoMap re-scans track zero from its start on a fresh cursor,
// collecting set-tempo meta events until end of track. Everything else is
// skipped: metas by declared length, sysex to its terminator, channel
// events by the fixed-length rule.
func (d *Decoder) buildTempoMap() (*tempoMap, error) {
	c := d.tracks[0].start.clone()

	var points []Breakpoint
	var pulse uint64
	var lastStatus byte

	for {
		pulses, err := c.readVarLen()
		if err != nil {
			return nil, err
		}
		pulse += uint64(pulses)

		b, err := c.peekByte(0)
		if err != nil {
			return nil, err
		}
		status := lastStatus
		if b&0x80 != 0 {
			status = b
			c.advance(1)
		}

		switch {
		case status == statusMeta:
			lastStatus = 0
			metaType, err := c.readByte()
			if err != nil {
				return nil, err
			}
			if metaType == metaEndOfTrack {
				return newTempoMap(d.pulsesPerBeat, points), nil
			}
			length, err := c.readVarLen()
			if err != nil {
				return nil, err
			}
			if metaType != metaSetTempo {
				c.advance(int(length))
				continue
			}
			if length != 3 {
				return nil, fmt.Errorf("%w - tempo event length %d, expected 3", ErrUnexpectedData, length)
			}
			var micros uint32
			for j := 0; j < 3; j++ {
				b, err := c.readByte()
				if err != nil {
					return nil, err
				}
				micros = micros<<8 | uint32(b)
			}
			points = append(points, Breakpoint{Pulse: pulse, SecondsPerBeat: float64(micros) / 1e6})

		case status == statusSysEx:
			lastStatus = 0
			if !c.scanPastByte(sysExTerminator) {
				return nil, fmt.Errorf("%w - unterminated system exclusive message", ErrOutOfBounds)
			}

		default:
			if status&0x80 == 0 {
				c.advance(1)
				continue
			}
			if isChannelStatus(status) {
				lastStatus = status
			}
			c.advance(dataByteLen(status))
		}
	}
}

func (d *Decoder) NumTracks() int {
	return len(d.tracks)
}

func (d *Decoder) ContainsTrack(i int) bool {
	return i >= 0 && i < len(d.tracks)
}

func (d *Decoder) Track(i int) (*TrackDecoder, error) {
	if !d.ContainsTrack(i) {
		return nil, fmt.Errorf("%w - track index %d out of range, have %d tracks", ErrUnexpectedData, i, len(d.tracks))
	}
	return d.tracks[i], nil
}

// TrackWithNotes returns the i-th track that actually carries note events,
// counting in file order and skipping note-free tracks.
func (d *Decoder) TrackWithNotes(i int) (*TrackDecoder, error) {
	if i < 0 {
		return nil, fmt.Errorf("%w - track index %d out of range", ErrUnexpectedData, i)
	}
	seen := 0
	for _, t := range d.tracks {
		ok, err := t.ContainsNotes()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if seen == i {
			return t, nil
		}
		seen++
	}
	return nil, fmt.Errorf("%w - note-bearing track %d out of range, have %d", ErrUnexpectedData, i, seen)
}

func (d *Decoder) PulsesPerBeat() int {
	return int(d.pulsesPerBeat)
}

// SlowestTempo returns the longest beat duration in seconds across the
// current tempo map, for downstream latency-safety margins.
func (d *Decoder) SlowestTempo() float64 {
	return d.tempo.slowest
}

func (d *Decoder) TempoMultiplier() float64 {
	return d.multiplier
}

// TempoAtTime returns the tempo breakpoint in effect at the given elapsed
// time under the current multiplier, clamped to the last breakpoint.
func (d *Decoder) TempoAtTime(at float64) Breakpoint {
	return d.tempo.at(at)
}

func (d *Decoder) TempoIndexAtTime(at float64) int {
	return d.tempo.indexAtTime(at)
}

// SetTempoMultiplier publishes a rescaled tempo map snapshot. The rebuild
// only happens when the multiplier actually changes; track decoders pick up
// the new snapshot on their next Restart.
func (d *Decoder) SetTempoMultiplier(m float64) error {
	if d.base == nil {
		return fmt.Errorf("%w - file not decoded", ErrUnexpectedData)
	}
	if m == d.multiplier {
		return nil
	}
	scaled, err := d.base.scaled(m)
	if err != nil {
		return err
	}
	d.multiplier = m
	d.tempo = scaled
	return nil
}

// ChangeTempoMultiplier adjusts the multiplier by delta.
func (d *Decoder) ChangeTempoMultiplier(delta float64) error {
	return d.SetTempoMultiplier(d.multiplier + delta)
}

// Duration returns the total elapsed seconds of track i under the current
// multiplier, computed by streaming a disposable clone to completion.
func (d *Decoder) Duration(i int) (float64, error) {
	t, err := d.Track(i)
	if err != nil {
		return 0, err
	}
	scan := t.Clone()
	if _, err := scan.Advance(math.Inf(1)); err != nil {
		return 0, err
	}
	return scan.lastTime, nil
}
