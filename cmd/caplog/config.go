package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config drives the logger: where to read the UART stream and how to
// turn diff-count series into touch events.
type Config struct {
	Serial  SerialConfig `yaml:"serial"`
	Sensors []string     `yaml:"sensors"`
	Detect  DetectConfig `yaml:"detect"`
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// DetectConfig parameterizes the per-sensor z-score peak detector.
type DetectConfig struct {
	Lag       int     `yaml:"lag"`
	Threshold float64 `yaml:"threshold"`
	Influence float64 `yaml:"influence"`
}

// Sensor names of the reference board, in telemetry index order.
var defaultSensors = []string{"CSD_360", "CSD_100", "CSD_20"}

// LoadConfig reads, validates and normalizes a YAML config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config read failed: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config parse failed: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Serial.Baud == 0 {
		c.Serial.Baud = 115200
	}
	if len(c.Sensors) == 0 {
		c.Sensors = append(c.Sensors, defaultSensors...)
	}
	if c.Detect.Lag == 0 {
		c.Detect.Lag = 30
	}
	if c.Detect.Threshold == 0 {
		c.Detect.Threshold = 5
	}
}

func (c *Config) validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("config: serial.port is required")
	}
	if c.Serial.Baud < 0 {
		return fmt.Errorf("config: serial.baud must be positive")
	}
	if c.Detect.Lag < 0 {
		return fmt.Errorf("config: detect.lag must be positive")
	}
	if c.Detect.Threshold < 0 {
		return fmt.Errorf("config: detect.threshold must be positive")
	}
	if c.Detect.Influence < 0 || c.Detect.Influence > 1 {
		return fmt.Errorf("config: detect.influence must be in [0, 1]")
	}
	return nil
}

// sensorName maps a telemetry index to its configured name.
func (c *Config) sensorName(i int) string {
	if i < len(c.Sensors) {
		return c.Sensors[i]
	}
	return fmt.Sprintf("sensor%d", i)
}
