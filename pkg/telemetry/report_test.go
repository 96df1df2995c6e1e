package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseReport(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
		expect  string
		err     error
	}{
		{"both", []byte{0x10, 0x01, 0x00, 0x3f, 0x80, 0x00, 0x00, 0x01, 0x05, 0x00, 0x02}, "speed=1 adc=2", nil},
		{"adc", []byte{0x10, 0x01, 0x05, 0x01, 0x00}, "adc=256", nil},
		{"empty", []byte{0x10}, "", ErrBadReport},
		{"wrong code", []byte{0x11, 0x01, 0x05, 0x00, 0x01}, "", ErrBadReport},
		{"short", []byte{0x10, 0x01, 0x00, 0x3f}, "", ErrBadReport},
		{"unknown sensor", []byte{0x10, 0x01, 0x07, 0x00, 0x01}, "", ErrBadReport},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ParseReport(tc.payload)
			require.Equal(t, tc.err, err)
			if err == nil {
				require.Equal(t, tc.expect, r.String())
			}
		})
	}
}

func TestBuildAndParse(t *testing.T) {
	s := NewService(nil, 0)
	s.speed.once.Store(true)
	s.adc.streaming.Store(true)
	f, ok := s.BuildReport()
	require.True(t, ok)
	r, err := ParseReport(f.Payload())
	require.NoError(t, err)
	require.Equal(t, []Reading{
		{Side: SideRight, Sensor: SensorSpeed, Value: 1},
		{Side: SideRight, Sensor: SensorADC, Value: 1},
	}, r.Readings)
}
