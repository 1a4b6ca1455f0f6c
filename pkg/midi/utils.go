package midi

const (
	statusNoteOff = 0x80
	statusNoteOn  = 0x90
	statusSysEx   = 0xF0
	statusMeta    = 0xFF

	metaEndOfTrack = 0x2F
	metaSetTempo   = 0x51

	sysExTerminator = 0xF7
)

var endOfTrackMarker = []byte{statusMeta, metaEndOfTrack, 0x00}

func isChannelStatus(b byte) bool {
	return b >= 0x80 && b < 0xF0
}

func isNoteStatus(status byte) bool {
	s := status & 0xF0
	return s == statusNoteOn || s == statusNoteOff
}

// dataByteLen returns the fixed data length of a channel event that is not
// decoded: program change and channel pressure carry one data byte, every
// other channel status carries two.
func dataByteLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}
