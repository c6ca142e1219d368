// Package capsense drives a mutual-capacitance sensing front end and
// keeps the per-sensor context records it reports. All signal processing
// (filtering, baseline tracking, debouncing) happens inside the front end
// chip; this package only sequences scans and copies register data.
package capsense

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
)

// SensorCount is the number of physical sensors wired to the front end.
// The telemetry and tuner buffers are sized from this constant; changing
// the sensor layout means changing it here and re-flashing.
const SensorCount = 3

// SensorContext holds the front end's view of a single sensor after the
// last completed scan. Mutated only by ProcessAllWidgets; read-only to
// everything else.
type SensorContext struct {
	Raw  uint16 // raw scan count
	Diff uint16 // baseline-subtracted count
	Bsln uint16 // running baseline
}

// Frontend is the register-level interface to the sensing chip.
type Frontend interface {
	// Reset brings the chip to its default configuration.
	Reset() error
	// Enable starts the sensing block.
	Enable() error
	// TriggerScan starts a scan of all sensors. The scan runs
	// asynchronously; completion is observed via Busy.
	TriggerScan() error
	// Busy reports whether a scan is still in progress.
	Busy() (bool, error)
	// ReadSensor returns the raw, diff and baseline counts of sensor i.
	ReadSensor(i int) (raw, diff, bsln uint16, err error)
	// SyncTuner synchronizes the chip with an attached tuning tool.
	SyncTuner() error
}

const (
	tunerSignature = uint16(0x4D43) // "CM", identifies the tuner structure

	// TunerSize is the size of the serialized tuner structure in bytes:
	// 3 header words plus raw/diff/bsln per sensor.
	TunerSize = 6 + 6*SensorCount
)

// Engine sequences scans on a Frontend and owns the sensor context array.
// It is not safe for concurrent use except for HandleInterrupt, which may
// be called from an interrupt context.
type Engine struct {
	fe       Frontend
	ctx      [SensorCount]SensorContext
	revision uint16
	scanDone uint32 // set by HandleInterrupt, cleared by ScanAllSlots
}

// New returns an engine driving the given front end. The front end is not
// touched until Init.
func New(fe Frontend) *Engine {
	return &Engine{fe: fe}
}

// Init resets the front end to its default state.
func (e *Engine) Init() error {
	if err := e.fe.Reset(); err != nil {
		return fmt.Errorf("Reset failed: %w", err)
	}
	return nil
}

// Enable starts the sensing block.
func (e *Engine) Enable() error {
	if err := e.fe.Enable(); err != nil {
		return fmt.Errorf("Enable failed: %w", err)
	}
	return nil
}

// ScanAllSlots triggers the next scan of all sensors. Fire-and-forget:
// completion is observed through IsBusy.
func (e *Engine) ScanAllSlots() error {
	atomic.StoreUint32(&e.scanDone, 0)
	if err := e.fe.TriggerScan(); err != nil {
		return fmt.Errorf("TriggerScan failed: %w", err)
	}
	return nil
}

// IsBusy reports whether the current scan is still running. It never
// blocks. When the scan-complete interrupt line is wired, the interrupt
// flag short-circuits the register read; otherwise the chip's status
// register is polled. An unreadable status counts as busy so the caller
// keeps polling.
func (e *Engine) IsBusy() bool {
	if atomic.LoadUint32(&e.scanDone) != 0 {
		return false
	}
	busy, err := e.fe.Busy()
	if err != nil {
		return true
	}
	return busy
}

// HandleInterrupt is the engine's interrupt entry point, invoked by the
// scan-complete interrupt adapter. Safe from interrupt context.
func (e *Engine) HandleInterrupt() {
	atomic.StoreUint32(&e.scanDone, 1)
}

// ProcessAllWidgets refreshes the sensor context array from the front
// end. Must only be called after IsBusy reports false. A sensor whose
// registers cannot be read keeps its previous context; the remaining
// sensors are still refreshed.
func (e *Engine) ProcessAllWidgets() error {
	var allErrs error
	for i := range e.ctx {
		raw, diff, bsln, err := e.fe.ReadSensor(i)
		if err != nil {
			allErrs = errors.Join(allErrs, fmt.Errorf("ReadSensor %d failed: %w", i, err))
			continue
		}
		e.ctx[i] = SensorContext{Raw: raw, Diff: diff, Bsln: bsln}
	}
	return allErrs
}

// RunTuner establishes one round of synchronized communication with an
// attached tuning tool. Best-effort.
func (e *Engine) RunTuner() error {
	e.revision++
	if err := e.fe.SyncTuner(); err != nil {
		return fmt.Errorf("SyncTuner failed: %w", err)
	}
	return nil
}

// Context returns the sensor context array. The slice aliases the
// engine's state: treat it as read-only and do not retain it across
// ProcessAllWidgets calls when a stable view is needed.
func (e *Engine) Context() []SensorContext {
	return e.ctx[:]
}

// TunerBytes serializes the full diagnostic structure consumed by vendor
// tuning tools: signature, revision and sensor count, then raw, diff and
// baseline per sensor, all little-endian.
func (e *Engine) TunerBytes() []byte {
	buf := make([]byte, 0, TunerSize)
	buf = binary.LittleEndian.AppendUint16(buf, tunerSignature)
	buf = binary.LittleEndian.AppendUint16(buf, e.revision)
	buf = binary.LittleEndian.AppendUint16(buf, SensorCount)
	for i := range e.ctx {
		buf = binary.LittleEndian.AppendUint16(buf, e.ctx[i].Raw)
		buf = binary.LittleEndian.AppendUint16(buf, e.ctx[i].Diff)
		buf = binary.LittleEndian.AppendUint16(buf, e.ctx[i].Bsln)
	}
	return buf
}
