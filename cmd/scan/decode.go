package main

import (
	"context"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/Garik-/midistream/pkg/midi"
)

type report struct {
	tracks      int
	noteTracks  int
	polyphonic  int
	duration    float64
	slowestBeat float64
}

type result struct {
	name   string
	report *report
	err    error
}

func decodeFile(name string, multiplier float64) *result {
	l := decoderLog.Named("decodeFile")
	out := &result{name: name}

	data, err := os.ReadFile(name)
	if err != nil {
		out.err = err
		return out
	}

	decoder := midi.NewDecoder(data)
	if err = decoder.Decode(); err != nil {
		out.err = err
		return out
	}

	if err = decoder.SetTempoMultiplier(multiplier); err != nil {
		out.err = err
		return out
	}

	r := &report{
		tracks:      decoder.NumTracks(),
		slowestBeat: decoder.SlowestTempo(),
	}

	for i := 0; i < decoder.NumTracks(); i++ {
		track, err := decoder.Track(i)
		if err != nil {
			out.err = err
			return out
		}

		notes, err := track.ContainsNotes()
		if err != nil {
			out.err = err
			return out
		}
		if !notes {
			continue
		}
		r.noteTracks++

		poly, err := track.ContainsPolyphony()
		if err != nil {
			out.err = err
			return out
		}
		if poly {
			r.polyphonic++
		}

		duration, err := decoder.Duration(i)
		if err != nil {
			out.err = err
			return out
		}
		if duration > r.duration {
			r.duration = duration
		}

		l.Debug("track",
			zap.String("name", name),
			zap.Int("track", i),
			zap.Bool("polyphonic", poly),
			zap.Float64("duration", duration))
	}

	out.report = r
	return out
}

func decodeWorker(ctx context.Context, paths <-chan string, multiplier float64, cntRoutines int) (<-chan *result, <-chan struct{}) {
	out := make(chan *result)
	done := make(chan struct{}, 1)

	go func() {
		var wg sync.WaitGroup
		goroutines := make(chan struct{}, cntRoutines)

	loop:
		for path := range paths {
			select {
			case goroutines <- struct{}{}:
			case <-ctx.Done():
				log.Println("decodeWorker context done")
				break loop
			}
			wg.Add(1)
			go func(ctx context.Context, path string, goroutines <-chan struct{}, out chan<- *result, wg *sync.WaitGroup) {
				defer wg.Done()

				select {
				case out <- decodeFile(path, multiplier):
				case <-ctx.Done():
					log.Printf("decodeFile %s context done\n", path)
				}
				<-goroutines

			}(ctx, path, goroutines, out, &wg)
		}

		wg.Wait()
		close(goroutines)
		close(out)

		done <- struct{}{}
		close(done)
	}()

	return out, done
}
