package telemetry

// CodeDataTransfer is the command code of both data transfer commands
// and report frames.
const CodeDataTransfer byte = 0x10

// Sides.
const (
	SideRight byte = 0x01
)

// Sensor identifies a reported quantity.
type Sensor byte

// Sensors.
const (
	SensorSpeed Sensor = 0x00
	SensorADC   Sensor = 0x05
)

// String implements fmt.Stringer.
func (s Sensor) String() string {
	switch s {
	case SensorSpeed:
		return "speed"
	case SensorADC:
		return "adc"
	}
	return "unknown"
}

// Op is the operation of a sub-command.
type Op byte

// Ops.
const (
	OpStop  Op = 0x00
	OpOnce  Op = 0x01
	OpStart Op = 0x02
)

// Command returns the encoded sub-command.
func Command(side byte, sensor Sensor, op Op) []byte {
	return []byte{side, byte(sensor), byte(op)}
}

// RecordSize returns the size of a record including side and sensor.
func RecordSize(sensor Sensor) int {
	if sensor == SensorSpeed {
		return 6
	}
	return 4
}
