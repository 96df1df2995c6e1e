// Package telemetry implements the data transfer command and the
// periodic sensor report frames.
//
// A data transfer command payload is a sequence of sub-commands:
//
//	0x10 [side sensor op]...
//
// and a report frame is a sequence of records:
//
//	0x10 [side sensor value]...
//
// where value is a big-endian float32 for speed and a big-endian
// uint16 for ADC.
package telemetry
