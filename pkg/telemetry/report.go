package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrBadReport indicates a report payload can't be parsed.
var ErrBadReport = errors.New("bad report")

// Reading is one record of a report.
type Reading struct {
	Side   byte    `json:"side"`
	Sensor Sensor  `json:"sensor"`
	Value  float64 `json:"value"`
}

// Report is a parsed report frame.
type Report struct {
	Readings []Reading `json:"readings"`
}

// ParseReport parses a report payload including the leading code.
func ParseReport(payload []byte) (r Report, err error) {
	if len(payload) == 0 || payload[0] != CodeDataTransfer {
		return r, ErrBadReport
	}
	for p := payload[1:]; len(p) > 0; {
		if len(p) < 2 {
			return r, ErrBadReport
		}
		reading := Reading{Side: p[0], Sensor: Sensor(p[1])}
		size := RecordSize(reading.Sensor)
		if reading.Sensor != SensorSpeed && reading.Sensor != SensorADC || len(p) < size {
			return r, ErrBadReport
		}
		switch reading.Sensor {
		case SensorSpeed:
			reading.Value = float64(math.Float32frombits(binary.BigEndian.Uint32(p[2:size])))
		case SensorADC:
			reading.Value = float64(binary.BigEndian.Uint16(p[2:size]))
		}
		r.Readings = append(r.Readings, reading)
		p = p[size:]
	}
	if len(r.Readings) == 0 {
		return r, ErrBadReport
	}
	return r, nil
}

// String implements fmt.Stringer.
func (r Report) String() string {
	items := make([]string, len(r.Readings))
	for n, reading := range r.Readings {
		items[n] = fmt.Sprintf("%s=%g", reading.Sensor, reading.Value)
	}
	return strings.Join(items, " ")
}
