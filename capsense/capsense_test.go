package capsense

import (
	"encoding/binary"
	"errors"
	"testing"
)

type fakeFrontend struct {
	resetErr   error
	enableErr  error
	scanErr    error
	busy       bool
	busyErr    error
	sensors    [SensorCount][3]uint16
	sensorErrs [SensorCount]error
	scans      int
	tunerSyncs int
}

func (f *fakeFrontend) Reset() error  { return f.resetErr }
func (f *fakeFrontend) Enable() error { return f.enableErr }

func (f *fakeFrontend) TriggerScan() error {
	f.scans++
	return f.scanErr
}

func (f *fakeFrontend) Busy() (bool, error) { return f.busy, f.busyErr }

func (f *fakeFrontend) ReadSensor(i int) (uint16, uint16, uint16, error) {
	if err := f.sensorErrs[i]; err != nil {
		return 0, 0, 0, err
	}
	s := f.sensors[i]
	return s[0], s[1], s[2], nil
}

func (f *fakeFrontend) SyncTuner() error {
	f.tunerSyncs++
	return nil
}

func TestProcessAllWidgets_RefreshesContext(t *testing.T) {
	fe := &fakeFrontend{}
	fe.sensors[0] = [3]uint16{10, 2, 8}
	fe.sensors[1] = [3]uint16{20, 5, 15}
	fe.sensors[2] = [3]uint16{30, 7, 23}

	e := New(fe)
	if err := e.ProcessAllWidgets(); err != nil {
		t.Fatalf("ProcessAllWidgets failed: %v", err)
	}

	ctx := e.Context()
	if len(ctx) != SensorCount {
		t.Fatalf("context has %d sensors, want %d", len(ctx), SensorCount)
	}
	for i, want := range fe.sensors {
		got := ctx[i]
		if got.Raw != want[0] || got.Diff != want[1] || got.Bsln != want[2] {
			t.Errorf("sensor %d: got %+v, want raw=%d diff=%d bsln=%d", i, got, want[0], want[1], want[2])
		}
	}
}

func TestProcessAllWidgets_PartialFailureKeepsOthers(t *testing.T) {
	fe := &fakeFrontend{}
	fe.sensors[0] = [3]uint16{10, 2, 8}
	fe.sensors[2] = [3]uint16{30, 7, 23}
	fe.sensorErrs[1] = errors.New("nak")

	e := New(fe)
	if err := e.ProcessAllWidgets(); err == nil {
		t.Fatal("expected error, got nil")
	}

	ctx := e.Context()
	if ctx[0].Raw != 10 || ctx[2].Raw != 30 {
		t.Errorf("healthy sensors not refreshed: %+v", ctx)
	}
	if ctx[1] != (SensorContext{}) {
		t.Errorf("failed sensor changed: %+v", ctx[1])
	}
}

func TestIsBusy_InterruptShortCircuit(t *testing.T) {
	fe := &fakeFrontend{busy: true}
	e := New(fe)

	if !e.IsBusy() {
		t.Fatal("expected busy while frontend scans")
	}

	e.HandleInterrupt()
	if e.IsBusy() {
		t.Fatal("expected idle after scan-complete interrupt")
	}

	// The next scan clears the completion flag again.
	if err := e.ScanAllSlots(); err != nil {
		t.Fatalf("ScanAllSlots failed: %v", err)
	}
	if !e.IsBusy() {
		t.Fatal("expected busy after re-triggering the scan")
	}
}

func TestIsBusy_UnreadableStatusCountsAsBusy(t *testing.T) {
	fe := &fakeFrontend{busyErr: errors.New("bus stuck")}
	e := New(fe)
	if !e.IsBusy() {
		t.Fatal("unreadable status must report busy")
	}
}

func TestTunerBytes_Layout(t *testing.T) {
	fe := &fakeFrontend{}
	fe.sensors[0] = [3]uint16{10, 2, 8}
	e := New(fe)
	if err := e.ProcessAllWidgets(); err != nil {
		t.Fatalf("ProcessAllWidgets failed: %v", err)
	}

	buf := e.TunerBytes()
	if len(buf) != TunerSize {
		t.Fatalf("got %d bytes, want %d", len(buf), TunerSize)
	}
	if got := binary.LittleEndian.Uint16(buf[0:]); got != tunerSignature {
		t.Errorf("signature=0x%04X, want 0x%04X", got, tunerSignature)
	}
	if got := binary.LittleEndian.Uint16(buf[2:]); got != 0 {
		t.Errorf("revision=%d, want 0", got)
	}
	if got := binary.LittleEndian.Uint16(buf[4:]); got != SensorCount {
		t.Errorf("sensor count=%d, want %d", got, SensorCount)
	}
	if got := binary.LittleEndian.Uint16(buf[6:]); got != 10 {
		t.Errorf("sensor 0 raw=%d, want 10", got)
	}

	// RunTuner bumps the revision.
	if err := e.RunTuner(); err != nil {
		t.Fatalf("RunTuner failed: %v", err)
	}
	buf = e.TunerBytes()
	if got := binary.LittleEndian.Uint16(buf[2:]); got != 1 {
		t.Errorf("revision=%d after RunTuner, want 1", got)
	}
	if fe.tunerSyncs != 1 {
		t.Errorf("tuner syncs=%d, want 1", fe.tunerSyncs)
	}
}
