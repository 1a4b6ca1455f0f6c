package main

import (
	"log"
	"math"
	"os"

	"github.com/Garik-/midistream/pkg/midi"
)

func main() {
	data, err := os.ReadFile("./test.mid")
	if err != nil {
		log.Fatal(err)
	}

	decoder := midi.NewDecoder(data)
	err = decoder.Decode()

	if err != nil {
		log.Fatal(err)
	}

	track, err := decoder.TrackWithNotes(0)
	if err != nil {
		log.Fatal(err)
	}

	events, err := track.Advance(math.Inf(1))
	if err != nil {
		log.Println(err)
	}

	log.Printf("notes: %d\n", len(events))
}
