package midi

import "fmt"

// EventKind classifies a decoded note event.
type EventKind uint8

const (
	NoteOn EventKind = iota + 1
	NoteOff
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	default:
		return "unknown"
	}
}

// Event is a note event stamped with the absolute song time at which it
// occurs, in seconds under the tempo map the producing decoder holds.
type Event struct {
	Kind     EventKind
	Time     float64
	Note     uint8
	Velocity uint8
}

type rawEventKind uint8

const (
	metaEvent rawEventKind = iota + 1
	sysExEvent
	channelEvent
)

// rawEvent is the closed classification of one track event, decoded once
// per status byte so the streaming loop matches on a tag instead of raw
// byte values.
type rawEvent struct {
	kind     rawEventKind
	metaType byte
	status   byte
	note     uint8
	velocity uint8
}

// TrackDecoder streams delta-time-prefixed events out of a single track
// chunk, converting pulses to seconds through the owning file's tempo map.
// Each decoder exclusively owns its mutable state; clones are fully
// independent, so speculative scans over the same track never interfere.
type TrackDecoder struct {
	owner *Decoder
	start *cursor

	cur        *cursor
	tempo      *tempoMap
	lastStatus byte
	lastPulse  uint64
	lastTime   float64
	tempoIndex int
	target     float64
	complete   bool
}

func newTrackDecoder(owner *Decoder, start *cursor) *TrackDecoder {
	return &TrackDecoder{owner: owner, start: start, cur: start.clone()}
}

// Clone returns an independent decoder over the same track, positioned at
// the logical restart point with the owner's current tempo snapshot.
func (t *TrackDecoder) Clone() *TrackDecoder {
	c := newTrackDecoder(t.owner, t.start)
	c.Restart()
	return c
}

// Restart rewinds to the start of the track and zeroes all timing state.
// The tempo snapshot is re-fetched from the owner here, so a multiplier
// change takes effect at the next restart rather than mid-stream.
func (t *TrackDecoder) Restart() {
	t.cur = t.start.clone()
	t.lastStatus = 0
	t.lastPulse = 0
	t.lastTime = 0
	t.tempoIndex = 0
	t.target = 0
	t.complete = false
	t.tempo = t.owner.tempo
}

// SongComplete reports whether the end-of-track event has been consumed.
// Once set, Advance returns no further events until Restart.
func (t *TrackDecoder) SongComplete() bool {
	return t.complete
}

// CurrentTempo returns the beat duration in seconds in effect at the last
// committed event time.
func (t *TrackDecoder) CurrentTempo() float64 {
	return t.tempo.points[t.tempoIndex].SecondsPerBeat
}

// Advance raises the decoder's target time by delta seconds and returns, in
// arrival order, every event whose converted time falls at or before the
// new target. The look-ahead peeks the next delta without consuming it, so
// an event past the target stays untouched for the next call. No returned
// event ever exceeds the total time requested since the last restart.
func (t *TrackDecoder) Advance(delta float64) ([]Event, error) {
	t.target += delta

	var events []Event
	for !t.complete {
		pulses, n, err := t.cur.peekVarLen()
		if err != nil {
			return events, err
		}

		seconds, _ := t.tempo.deltaSeconds(t.lastPulse, uint64(pulses), t.tempoIndex)
		when := t.lastTime + seconds
		if when > t.target {
			break
		}

		t.cur.advance(n)
		t.lastPulse += uint64(pulses)
		t.lastTime = when
		t.tempoIndex = t.tempo.indexAtTime(when)

		raw, err := t.readRawEvent()
		if err != nil {
			return events, err
		}

		switch raw.kind {
		case metaEvent:
			if raw.metaType == metaEndOfTrack {
				t.complete = true
			}
		case channelEvent:
			switch raw.status & 0xF0 {
			case statusNoteOn:
				events = append(events, Event{Kind: NoteOn, Time: when, Note: raw.note, Velocity: raw.velocity})
			case statusNoteOff:
				events = append(events, Event{Kind: NoteOff, Time: when, Note: raw.note, Velocity: raw.velocity})
			}
		}
	}

	return events, nil
}

// readRawEvent consumes exactly one event at the cursor and classifies it.
// A status byte with the top bit clear reuses the previous channel status
// (running status); meta and system exclusive events clear it.
func (t *TrackDecoder) readRawEvent() (rawEvent, error) {
	b, err := t.cur.peekByte(0)
	if err != nil {
		return rawEvent{}, err
	}

	status := t.lastStatus
	if b&0x80 != 0 {
		status = b
		t.cur.advance(1)
	}

	switch status {
	case statusMeta:
		t.lastStatus = 0
		metaType, err := t.cur.readByte()
		if err != nil {
			return rawEvent{}, err
		}
		if metaType == metaEndOfTrack {
			return rawEvent{kind: metaEvent, metaType: metaType}, nil
		}
		length, err := t.cur.readVarLen()
		if err != nil {
			return rawEvent{}, err
		}
		t.cur.advance(int(length))
		return rawEvent{kind: metaEvent, metaType: metaType}, nil

	case statusSysEx:
		t.lastStatus = 0
		if !t.cur.scanPastByte(sysExTerminator) {
			return rawEvent{}, fmt.Errorf("%w - unterminated system exclusive message", ErrOutOfBounds)
		}
		return rawEvent{kind: sysExEvent}, nil

	default:
		if status&0x80 == 0 {
			// data byte with no running status to reuse; skip it
			t.cur.advance(1)
			return rawEvent{}, nil
		}
		if isChannelStatus(status) {
			t.lastStatus = status
		}
		raw := rawEvent{kind: channelEvent, status: status}
		if isNoteStatus(status) {
			note, err := t.cur.readByte()
			if err != nil {
				return rawEvent{}, err
			}
			velocity, err := t.cur.readByte()
			if err != nil {
				return rawEvent{}, err
			}
			raw.note, raw.velocity = note&0x7F, velocity&0x7F
			return raw, nil
		}
		t.cur.advance(dataByteLen(status))
		return raw, nil
	}
}

// ContainsNotes scans the track for a note-on or note-off event. The scan
// runs over a disposable clone, so the receiver's position, timing state
// and completion flag are untouched.
func (t *TrackDecoder) ContainsNotes() (bool, error) {
	scan := t.Clone()
	for {
		raw, done, err := scan.scanStep()
		if err != nil || done {
			return false, err
		}
		if raw.kind == channelEvent && isNoteStatus(raw.status) {
			return true, nil
		}
	}
}

// ContainsPolyphony reports whether two consecutive note-class events carry
// the same on/off status with no note event of the other status between
// them — a conservative overlap heuristic for the single-voice consumer,
// not a full interval check. Clone-based like ContainsNotes.
func (t *TrackDecoder) ContainsPolyphony() (bool, error) {
	scan := t.Clone()
	var prev byte
	for {
		raw, done, err := scan.scanStep()
		if err != nil || done {
			return false, err
		}
		if raw.kind != channelEvent || !isNoteStatus(raw.status) {
			continue
		}
		s := raw.status & 0xF0
		if prev != 0 && s == prev {
			return true, nil
		}
		prev = s
	}
}

// scanStep consumes one delta/event pair ignoring timing. done is true once
// the end-of-track event has been consumed.
func (t *TrackDecoder) scanStep() (rawEvent, bool, error) {
	if t.complete {
		return rawEvent{}, true, nil
	}
	if _, err := t.cur.readVarLen(); err != nil {
		return rawEvent{}, false, err
	}
	raw, err := t.readRawEvent()
	if err != nil {
		return rawEvent{}, false, err
	}
	if raw.kind == metaEvent && raw.metaType == metaEndOfTrack {
		t.complete = true
		return raw, true, nil
	}
	return raw, false, nil
}
