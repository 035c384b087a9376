// Command outboard runs a headless batch: measure the round-trip
// latency of the hardware loop, then play every listed file through it
// and write the latency-compensated captures to the output folder.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/rackworks/outboard"
	"github.com/rackworks/outboard/config"
	"github.com/rackworks/outboard/device"
	"github.com/rackworks/outboard/engine"
	"github.com/rackworks/outboard/queue"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		listOnly   = flag.Bool("list", false, "list audio devices and exit")
		outFolder  = flag.String("out", "", "output folder (overrides config)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.WithError(err).Fatal("Could not load config")
		}
	}
	if *outFolder != "" {
		cfg.OutputFolder = *outFolder
	}

	if *listOnly {
		listDevices(log, cfg)
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: outboard [-config file.yaml] [-out folder] file...")
		os.Exit(1)
	}
	if cfg.OutputFolder == "" {
		log.Fatal("No output folder configured (use -out or output_folder)")
	}

	session, dev, err := outboard.NewEngine(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Could not open device")
	}
	defer dev.Close()
	defer session.Close()

	measured := make(chan int, 1)
	done := make(chan struct{}, 1)
	session.SetNotifications(engine.Notifications{
		MeasurementComplete: func(latencyFrames int, _ float64) {
			measured <- latencyFrames
		},
		BatchComplete: func(completed, failed int) {
			if failed > 0 {
				log.WithFields(logrus.Fields{
					"completed": completed,
					"failed":    failed,
				}).Warn("Batch finished with failures")
			}
			done <- struct{}{}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx)

	if err := session.EnterMeasureLatency(); err != nil {
		log.WithError(err).Fatal("Could not start latency measurement")
	}
	if lat := <-measured; lat < 0 {
		log.Fatal("Latency measurement failed: no impulse detected")
	}

	reg := outboard.NewRegistry()
	entries := make([]*queue.Entry, 0, flag.NArg())
	for _, path := range flag.Args() {
		entry := queue.NewEntry(path)
		if err := entry.Probe(reg, cfg.SampleRate); err != nil {
			log.WithError(err).WithField("file", entry.Name()).Warn("File will be skipped")
		}
		entries = append(entries, entry)
	}

	if err := session.EnterProcessing(entries); err != nil {
		log.WithError(err).Fatal("Could not start batch")
	}
	<-done
}

func listDevices(log *logrus.Logger, cfg config.Config) {
	dev, err := device.New(device.Config{
		SampleRate:   cfg.SampleRate,
		PeriodFrames: cfg.PeriodFrames,
		InputPair:    device.StereoPair{Left: cfg.InputPair.Left, Right: cfg.InputPair.Right},
		OutputPair:   device.StereoPair{Left: cfg.OutputPair.Left, Right: cfg.OutputPair.Right},
	})
	if err != nil {
		log.WithError(err).Fatal("Could not initialize audio backend")
	}
	defer dev.Close()

	infos, err := dev.List()
	if err != nil {
		log.WithError(err).Fatal("Could not list devices")
	}
	for _, info := range infos {
		fmt.Println(info.Name)
	}
}
