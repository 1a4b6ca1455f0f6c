package midi

// smfFile assembles a format 0/1 file from raw track payloads. Each payload
// must carry its own end-of-track event.
func smfFile(division uint16, tracks ...[]byte) []byte {
	var format byte
	if len(tracks) > 1 {
		format = 1
	}

	buf := []byte{
		'M', 'T', 'h', 'd',
		0, 0, 0, 6,
		0, format,
		byte(len(tracks) >> 8), byte(len(tracks)),
		byte(division >> 8), byte(division),
	}

	for _, tr := range tracks {
		buf = append(buf, 'M', 'T', 'r', 'k')
		buf = append(buf,
			byte(len(tr)>>24), byte(len(tr)>>16), byte(len(tr)>>8), byte(len(tr)))
		buf = append(buf, tr...)
	}
	return buf
}

var endOfTrack = []byte{0x00, 0xFF, 0x2F, 0x00}

// tempo500k is a set-tempo meta event at delta 0 for 500000 µs/beat (120 BPM).
var tempo500k = []byte{0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20}

// tempo250k is 250000 µs/beat (240 BPM).
func tempo250k(delta ...byte) []byte {
	return append(delta, 0xFF, 0x51, 0x03, 0x03, 0xD0, 0x90)
}

func concat(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// singleNoteFile is the canonical one-track scenario: 480 pulses/beat,
// 120 BPM at pulse 0, NoteOn(60,100) at pulse 0, NoteOff(60,0) at pulse 480.
func singleNoteFile() []byte {
	track := concat(
		tempo500k,
		[]byte{0x00, 0x90, 60, 100},
		[]byte{0x83, 0x60, 0x80, 60, 0}, // delta 480
		endOfTrack,
	)
	return smfFile(480, track)
}
