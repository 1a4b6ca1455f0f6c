package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Garik-/midistream/pkg/midi"
)

var (
	inFlag         = flag.String("i", "", "Input midi file")
	trackFlag      = flag.Int("t", 0, "Index of the note-bearing track to stream")
	stepFlag       = flag.Float64("step", 0.1, "Advance step in seconds, must be > 0")
	multiplierFlag = flag.Float64("m", 1, "Tempo multiplier, must be > 0")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s \n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *inFlag == "" || *stepFlag <= 0 {
		flag.Usage()
		return
	}

	data, err := os.ReadFile(*inFlag)
	if err != nil {
		log.Fatal(err)
	}

	decoder := midi.NewDecoder(data)
	if err = decoder.Decode(); err != nil {
		log.Fatal(err)
	}

	if err = decoder.SetTempoMultiplier(*multiplierFlag); err != nil {
		log.Fatal(err)
	}

	track, err := decoder.TrackWithNotes(*trackFlag)
	if err != nil {
		log.Fatal(err)
	}
	track.Restart()

	for !track.SongComplete() {
		events, err := track.Advance(*stepFlag)
		if err != nil {
			log.Fatal(err)
		}
		for _, e := range events {
			fmt.Printf("%8.3f %s note=%d velocity=%d\n", e.Time, e.Kind, e.Note, e.Velocity)
		}
	}
}
