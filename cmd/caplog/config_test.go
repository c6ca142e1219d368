package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "caplog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "serial:\n  port: /dev/ttyACM0\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Serial.Baud != 115200 {
		t.Errorf("baud=%d, want default 115200", cfg.Serial.Baud)
	}
	if len(cfg.Sensors) != 3 || cfg.Sensors[0] != "CSD_360" {
		t.Errorf("sensors=%v, want reference board defaults", cfg.Sensors)
	}
	if cfg.Detect.Lag != 30 || cfg.Detect.Threshold != 5 {
		t.Errorf("detect defaults wrong: %+v", cfg.Detect)
	}
}

func TestLoadConfig_Full(t *testing.T) {
	path := writeConfig(t, `serial:
  port: /dev/ttyUSB1
  baud: 9600
sensors: [left, right]
detect:
  lag: 10
  threshold: 2.5
  influence: 0.3
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyUSB1" || cfg.Serial.Baud != 9600 {
		t.Errorf("serial=%+v", cfg.Serial)
	}
	if len(cfg.Sensors) != 2 || cfg.Sensors[1] != "right" {
		t.Errorf("sensors=%v", cfg.Sensors)
	}
	if cfg.Detect.Lag != 10 || cfg.Detect.Threshold != 2.5 || cfg.Detect.Influence != 0.3 {
		t.Errorf("detect=%+v", cfg.Detect)
	}
}

func TestLoadConfig_MissingPort(t *testing.T) {
	path := writeConfig(t, "sensors: [a]\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for missing serial.port")
	}
}

func TestLoadConfig_BadInfluence(t *testing.T) {
	path := writeConfig(t, "serial:\n  port: /dev/ttyACM0\ndetect:\n  influence: 2\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for influence out of range")
	}
}

func TestSensorName_FallsBackToIndex(t *testing.T) {
	cfg := &Config{Sensors: []string{"only"}}
	if got := cfg.sensorName(0); got != "only" {
		t.Errorf("sensorName(0)=%q", got)
	}
	if got := cfg.sensorName(2); got != "sensor2" {
		t.Errorf("sensorName(2)=%q", got)
	}
}
