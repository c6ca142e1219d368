// Package controller drives the scan, process and export cycle: trigger
// a scan, poll for completion, refresh the telemetry buffer, publish it
// to the I2C exposer and periodically render it over UART.
package controller

import (
	"fmt"
	"io"

	"github.com/capworks/captouch/capsense"
	"github.com/capworks/captouch/telemetry"
)

// EZI2C window base bytes, matching the vendor tooling convention.
const (
	TunerBase     = 0x08
	TelemetryBase = 0x09
)

// DefaultReportEvery is the cycle period of the UART report.
const DefaultReportEvery = 100

// Engine is the sensing middleware the controller sequences.
type Engine interface {
	Init() error
	Enable() error
	ScanAllSlots() error
	IsBusy() bool
	ProcessAllWidgets() error
	RunTuner() error
	Context() []capsense.SensorContext
	TunerBytes() []byte
}

// Exposer presents the tuner and telemetry buffers to an external I2C
// master. Buffer 1 carries the tuner structure, buffer 2 the telemetry
// record.
type Exposer interface {
	Configure() error
	SetBuffer1(base uint8, data []byte)
	SetBuffer2(base uint8, data []byte)
	Update1(data []byte)
	Update2(data []byte)
	Enable() error
}

// Config wires a controller.
type Config struct {
	Engine  Engine
	Exposer Exposer

	// Report receives the periodic text report (the UART).
	Report io.Writer

	// ReportEvery is the report period in cycles. Zero means
	// DefaultReportEvery.
	ReportEvery uint32

	// WireEngineInterrupt attaches the scan-complete interrupt
	// adapter. Called only when the engine initialized; nil skips
	// wiring (host builds, tests).
	WireEngineInterrupt func()

	// WireBusInterrupt attaches the bus-activity interrupt adapter.
	// Nil skips wiring.
	WireBusInterrupt func()

	// Halt is invoked when the exposer cannot be brought up; it must
	// not return. Nil means block forever.
	Halt func()
}

// Controller owns the telemetry buffer and the cycle counter.
type Controller struct {
	engine  Engine
	exposer Exposer
	report  io.Writer

	reportEvery uint32
	wireEngine  func()
	wireBus     func()
	halt        func()

	buf     telemetry.Buffer
	scratch []byte
	cycles  uint32
}

// New validates the configuration and returns a controller.
func New(cfg Config) (*Controller, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("controller: no engine")
	}
	if cfg.Exposer == nil {
		return nil, fmt.Errorf("controller: no exposer")
	}
	if cfg.Report == nil {
		return nil, fmt.Errorf("controller: no report writer")
	}
	if cfg.ReportEvery == 0 {
		cfg.ReportEvery = DefaultReportEvery
	}
	if cfg.Halt == nil {
		cfg.Halt = func() {
			select {}
		}
	}
	return &Controller{
		engine:      cfg.Engine,
		exposer:     cfg.Exposer,
		report:      cfg.Report,
		reportEvery: cfg.ReportEvery,
		wireEngine:  cfg.WireEngineInterrupt,
		wireBus:     cfg.WireBusInterrupt,
		halt:        cfg.Halt,
	}, nil
}

// Setup performs the one-time registration sequence and seeds the loop
// with the first scan.
//
// An engine that fails to initialize is left unwired and disabled; the
// system continues degraded with an all-zero telemetry buffer. An
// exposer that fails to come up halts the system permanently.
func (c *Controller) Setup() {
	if err := c.engine.Init(); err == nil {
		if c.wireEngine != nil {
			c.wireEngine()
		}
		// Enable outcome is not acted upon; a dead block is observed
		// as a permanently busy engine.
		_ = c.engine.Enable()
	}

	if err := c.exposer.Configure(); err != nil {
		println("Failed to configure i2c exposer: ", err.Error())
		c.halt()
		return
	}
	if c.wireBus != nil {
		c.wireBus()
	}

	c.exposer.SetBuffer1(TunerBase, c.engine.TunerBytes())
	c.exposer.SetBuffer2(TelemetryBase, c.buf.Bytes())

	if err := c.exposer.Enable(); err != nil {
		println("Failed to enable i2c exposer: ", err.Error())
		c.halt()
		return
	}

	// Start the first scan.
	_ = c.engine.ScanAllSlots()
}

// RunOnce executes one iteration of the polling loop and reports whether
// a scan/process cycle completed. Engine call failures are swallowed:
// the middleware is trusted and there is no recovery path.
func (c *Controller) RunOnce() bool {
	if c.engine.IsBusy() {
		return false
	}

	_ = c.engine.ProcessAllWidgets()

	c.buf.CopyFrom(c.engine.Context())
	c.scratch = c.buf.AppendBinary(c.scratch[:0])
	c.exposer.Update2(c.scratch)

	_ = c.engine.RunTuner()
	c.exposer.Update1(c.engine.TunerBytes())

	// Start the next scan.
	_ = c.engine.ScanAllSlots()

	c.cycles++
	if c.cycles >= c.reportEvery {
		c.cycles = 0
		_ = telemetry.WriteReport(c.report, &c.buf)
	}
	return true
}

// Run spins the polling loop forever.
func (c *Controller) Run() {
	for {
		c.RunOnce()
	}
}

// Telemetry returns the controller's telemetry buffer for inspection.
// Read-only to callers.
func (c *Controller) Telemetry() *telemetry.Buffer {
	return &c.buf
}
