// Package telemetry holds the compact export copy of the sensor context
// for all sensors: the record read by an external I2C master and the
// source of the periodic UART report.
package telemetry

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/capworks/captouch/capsense"
)

// Size is the length of the serialized buffer in bytes.
const Size = 3 * 2 * capsense.SensorCount

// Buffer mirrors the raw, diff and baseline counts of every sensor at
// the time of the last copy. It is overwritten wholesale every cycle.
type Buffer struct {
	RawCount  [capsense.SensorCount]uint16
	DiffCount [capsense.SensorCount]uint16
	Baseline  [capsense.SensorCount]uint16
}

// CopyFrom projects the sensor context array into the buffer. The copy
// is total: every element is overwritten, leaving no stale cross-cycle
// mix of fields.
func (b *Buffer) CopyFrom(ctx []capsense.SensorContext) {
	n := len(ctx)
	if n > capsense.SensorCount {
		n = capsense.SensorCount
	}
	for i := 0; i < n; i++ {
		b.RawCount[i] = ctx[i].Raw
		b.DiffCount[i] = ctx[i].Diff
		b.Baseline[i] = ctx[i].Bsln
	}
}

// AppendBinary appends the wire format of the buffer to dst: all raw
// counts, then all diff counts, then all baselines, each an unsigned
// 16-bit little-endian integer.
func (b *Buffer) AppendBinary(dst []byte) []byte {
	for _, v := range b.RawCount {
		dst = binary.LittleEndian.AppendUint16(dst, v)
	}
	for _, v := range b.DiffCount {
		dst = binary.LittleEndian.AppendUint16(dst, v)
	}
	for _, v := range b.Baseline {
		dst = binary.LittleEndian.AppendUint16(dst, v)
	}
	return dst
}

// Bytes returns the wire format of the buffer as a fresh slice.
func (b *Buffer) Bytes() []byte {
	return b.AppendBinary(make([]byte, 0, Size))
}

// WriteReport renders the buffer as the human-readable UART report: one
// line per sensor followed by a separator line, all CRLF-terminated.
func WriteReport(w io.Writer, b *Buffer) error {
	for i := 0; i < capsense.SensorCount; i++ {
		_, err := fmt.Fprintf(w, "RAWcount_[%d] content: %d | Diffcount_[%d] content: %d\r\n",
			i, b.RawCount[i], i, b.DiffCount[i])
		if err != nil {
			return fmt.Errorf("report write failed: %w", err)
		}
	}
	if _, err := io.WriteString(w, "---\r\n"); err != nil {
		return fmt.Errorf("report write failed: %w", err)
	}
	return nil
}
