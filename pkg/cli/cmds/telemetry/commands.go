package telemetry

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mculink/pkg/cli/sh"
	l0 "github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/telemetry"
)

var ops = map[string]telemetry.Op{
	"stop":  telemetry.OpStop,
	"once":  telemetry.OpOnce,
	"start": telemetry.OpStart,
}

// CommandFrame builds the data transfer frame for sensor and op name.
func CommandFrame(sensor telemetry.Sensor, op string) (l0.Frame, error) {
	code, ok := ops[op]
	if !ok {
		return l0.Frame{}, fmt.Errorf("invalid OP %q", op)
	}
	f := l0.NewFrame()
	if err := f.AddData([]byte{telemetry.CodeDataTransfer}); err != nil {
		return f, err
	}
	err := f.AddData(telemetry.Command(telemetry.SideRight, sensor, code))
	return f, err
}

// Decode renders report frames.
func Decode(f *l0.Frame) (string, bool) {
	r, err := telemetry.ParseReport(f.Payload())
	if err != nil {
		return "", false
	}
	return r.String(), true
}

func sensorCmd(name string, sensor telemetry.Sensor) ishell.Cmd {
	return ishell.Cmd{
		Name: "tm." + name,
		Help: "once|start|stop",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			op := "once"
			if len(c.Args) > 0 {
				op = c.Args[0]
			}
			f, err := CommandFrame(sensor, op)
			if err != nil {
				c.Err(err)
				return
			}
			if op == "once" {
				sh.DoRequest(c, f)
				return
			}
			if sh.DoSend(c, f) == nil {
				c.Println("OK")
			}
		}),
	}
}

var (
	// SpeedCmd controls speed readings.
	SpeedCmd = sensorCmd("speed", telemetry.SensorSpeed)
	// ADCCmd controls ADC readings.
	ADCCmd = sensorCmd("adc", telemetry.SensorADC)
)

func init() {
	sh.AddCmds(&SpeedCmd, &ADCCmd)
	sh.AddDecoders(Decode)
}
