// caplog tails the touch firmware's UART report stream over a serial
// port, writes the samples as CSV and flags touch events with a z-score
// peak detector per sensor.
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/tarm/serial"
)

func main() {
	cfgPath := flag.String("config", "caplog.yaml", "path to the config file")
	csvPath := flag.String("csv", "", "CSV output file (default stdout)")
	flag.Parse()

	cfg, err := LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name: cfg.Serial.Port,
		Baud: cfg.Serial.Baud,
	})
	if err != nil {
		log.Fatalf("serial open failed (port=%s): %v", cfg.Serial.Port, err)
	}
	defer port.Close()

	out := io.Writer(os.Stdout)
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			log.Fatalf("csv create failed: %v", err)
		}
		defer f.Close()
		out = f
	}

	log.Printf("logging from %s at %d baud", cfg.Serial.Port, cfg.Serial.Baud)
	if err := run(port, out, cfg); err != nil {
		log.Fatalf("logger stopped: %v", err)
	}
}

// run pumps the serial stream through the parser, the CSV writer and
// the touch detector until the stream ends.
func run(in io.Reader, out io.Writer, cfg *Config) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader(cfg)); err != nil {
		return err
	}
	w.Flush()

	parser := &reportParser{}
	detector := newTouchDetector(len(cfg.Sensors), cfg.Detect)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cycle, done, err := parser.Feed(scanner.Text())
		if err != nil {
			log.Printf("skipping bad report line: %v", err)
			continue
		}
		if !done {
			continue
		}

		if err := w.Write(csvRow(cycle)); err != nil {
			return err
		}
		w.Flush()

		events, err := detector.Feed(cycle)
		if err != nil {
			return err
		}
		for _, ev := range events {
			log.Printf("touch detected: sensor=%s diff=%d", cfg.sensorName(ev.Sensor), ev.Diff)
		}
	}
	return scanner.Err()
}

func csvHeader(cfg *Config) []string {
	var header []string
	for _, name := range cfg.Sensors {
		header = append(header, name+"_RawCount", name+"_DiffCount")
	}
	return header
}

func csvRow(c Cycle) []string {
	var row []string
	for _, s := range c {
		row = append(row, strconv.Itoa(int(s.Raw)), strconv.Itoa(int(s.Diff)))
	}
	return row
}
