package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
)

const (
	maxGoroutines = 10
)

var (
	listFlag   = flag.String("l", "", "The path to the list of midi files,\nfind . -type f -name \"*.mid\" > midi_list.txt")
	configFlag = flag.String("c", "", "The path to the yaml config file")
	maxFlag    = flag.Int("p", 0, "Number of files processed in parallel, overrides the config when > 0")
	debugFlag  = flag.Bool("debug", false, "Enable debug logging")
)

func readList(file *os.File) <-chan string {
	out := make(chan string)

	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanLines)

	go func() {
		for scanner.Scan() {
			out <- scanner.Text()
		}
		close(out)
	}()

	return out
}

func scanList(parent context.Context, paths <-chan string, multiplier float64, cntRoutines int) error {
	l := reportLog.Named("scanList")
	ctx, cancel := context.WithCancel(parent)
	results, done := decodeWorker(ctx, paths, multiplier, cntRoutines)

	defer func() {
		l.Debug("cancel")
		cancel()
		<-done // wait decodeWorker closed
	}()

	for result := range results {
		if result.err != nil {
			return fmt.Errorf("%s: %w", result.name, result.err)
		}

		r := result.report
		log.Printf("name: %s, tracks: %d, with notes: %d, polyphonic: %d, duration: %.2fs, slowest beat: %.3fs",
			result.name, r.tracks, r.noteTracks, r.polyphonic, r.duration, r.slowestBeat)
	}

	return nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s \n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *listFlag == "" {
		flag.Usage()
		return
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		log.Fatal(err)
	}

	if *maxFlag > 0 {
		cfg.Parallel = *maxFlag
	}
	if cfg.Parallel <= 0 {
		flag.Usage()
		return
	}

	if *debugFlag {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
		defer logger.Sync()
		enableDebugLogging(logger)
	}

	f, err := os.Open(*listFlag)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	paths := readList(f)
	if err = scanList(context.Background(), paths, cfg.TempoMultiplier, cfg.Parallel); err != nil {
		log.Fatal(err)
	}
}
