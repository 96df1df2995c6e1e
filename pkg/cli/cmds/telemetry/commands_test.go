package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"

	l0 "github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/telemetry"
)

func TestCommandFrame(t *testing.T) {
	f, err := CommandFrame(telemetry.SensorADC, "start")
	require.NoError(t, err)
	require.Equal(t, []byte{0x10, 0x01, 0x05, 0x02}, f.Payload())
	f, err = CommandFrame(telemetry.SensorSpeed, "stop")
	require.NoError(t, err)
	require.Equal(t, []byte{0x10, 0x01, 0x00, 0x00}, f.Payload())
	_, err = CommandFrame(telemetry.SensorSpeed, "pause")
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	f, err := l0.NewFrameWith([]byte{0x10, 0x01, 0x05, 0x00, 0x07})
	require.NoError(t, err)
	str, ok := Decode(&f)
	require.True(t, ok)
	require.Equal(t, "adc=7", str)

	f, err = l0.NewFrameWith([]byte{0x20})
	require.NoError(t, err)
	_, ok = Decode(&f)
	require.False(t, ok)
}
