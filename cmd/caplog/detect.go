package main

import (
	"fmt"

	"github.com/MicahParks/peakdetect"
)

// TouchEvent marks a positive diff-count excursion on one sensor.
type TouchEvent struct {
	Sensor int
	Diff   uint16
}

// touchDetector runs one z-score peak detector per sensor over the
// diff-count series. Each detector warms up on the first lag samples
// before it starts flagging events.
type touchDetector struct {
	lag       int
	threshold float64
	influence float64

	detectors []peakdetect.PeakDetector
	warmup    [][]float64
	ready     []bool
}

func newTouchDetector(sensors int, cfg DetectConfig) *touchDetector {
	d := &touchDetector{
		lag:       cfg.Lag,
		threshold: cfg.Threshold,
		influence: cfg.Influence,
		detectors: make([]peakdetect.PeakDetector, sensors),
		warmup:    make([][]float64, sensors),
		ready:     make([]bool, sensors),
	}
	for i := range d.detectors {
		d.detectors[i] = peakdetect.NewPeakDetector()
		d.warmup[i] = make([]float64, 0, d.lag)
	}
	return d
}

// Feed consumes one cycle and returns the touch events it triggered.
func (d *touchDetector) Feed(c Cycle) ([]TouchEvent, error) {
	var events []TouchEvent
	for i, s := range c {
		if i >= len(d.detectors) {
			break
		}
		v := float64(s.Diff)
		if !d.ready[i] {
			d.warmup[i] = append(d.warmup[i], v)
			if len(d.warmup[i]) < d.lag {
				continue
			}
			if err := d.detectors[i].Initialize(d.influence, d.threshold, d.warmup[i]); err != nil {
				return nil, fmt.Errorf("detector init failed (sensor %d): %w", i, err)
			}
			d.ready[i] = true
			continue
		}
		if d.detectors[i].Next(v) == peakdetect.SignalPositive {
			events = append(events, TouchEvent{Sensor: i, Diff: s.Diff})
		}
	}
	return events, nil
}
