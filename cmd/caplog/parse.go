package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sample is one sensor's values from one report cycle.
type Sample struct {
	Raw  uint16
	Diff uint16
}

// Cycle is one full report: one sample per sensor, index order.
type Cycle []Sample

// One report line, e.g. "RAWcount_[0] content: 1234 | Diffcount_[0] content: 56"
var reportLine = regexp.MustCompile(`^RAWcount_\[(\d+)\] content: (\d+) \| Diffcount_\[(\d+)\] content: (\d+)$`)

const separatorLine = "---"

// reportParser reassembles cycles from the firmware's UART text stream.
// Lines that are neither report lines nor separators (boot chatter,
// serial noise) are skipped. A line whose index does not continue the
// pending cycle drops the partial cycle and starts over.
type reportParser struct {
	pending []Sample
}

// Feed consumes one line. It returns a completed cycle when the line
// was a separator closing a non-empty cycle.
func (p *reportParser) Feed(line string) (Cycle, bool, error) {
	line = strings.TrimRight(line, "\r\n")

	if line == separatorLine {
		if len(p.pending) == 0 {
			return nil, false, nil
		}
		cycle := make(Cycle, len(p.pending))
		copy(cycle, p.pending)
		p.pending = p.pending[:0]
		return cycle, true, nil
	}

	m := reportLine.FindStringSubmatch(line)
	if m == nil {
		return nil, false, nil
	}

	rawIdx, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false, fmt.Errorf("bad sensor index %q: %w", m[1], err)
	}
	diffIdx, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, false, fmt.Errorf("bad sensor index %q: %w", m[3], err)
	}
	if rawIdx != diffIdx || rawIdx != len(p.pending) {
		// Stream out of step, e.g. attached mid-report. Resync on
		// the next cycle start.
		p.pending = p.pending[:0]
		if rawIdx != 0 || diffIdx != 0 {
			return nil, false, nil
		}
	}

	raw, err := strconv.ParseUint(m[2], 10, 16)
	if err != nil {
		return nil, false, fmt.Errorf("bad raw count %q: %w", m[2], err)
	}
	diff, err := strconv.ParseUint(m[4], 10, 16)
	if err != nil {
		return nil, false, fmt.Errorf("bad diff count %q: %w", m[4], err)
	}

	p.pending = append(p.pending, Sample{Raw: uint16(raw), Diff: uint16(diff)})
	return nil, false, nil
}
