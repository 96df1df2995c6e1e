package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mculink/pkg/l1"
	"github.com/robotalks/mculink/pkg/l1/comm/mqtt"
	"github.com/robotalks/mculink/pkg/l1/comm/websocket"
)

func TestParseRef(t *testing.T) {
	require.Equal(t, l1.DeviceRef{Type: "mculink", ID: "abc"}, ParseRef("abc"))
	require.Equal(t, l1.DeviceRef{Type: "rover", ID: "abc"}, ParseRef("rover/abc"))
}

func TestNewConnector(t *testing.T) {
	testCases := []struct {
		url    string
		expect interface{}
	}{
		{"mqtt://localhost:1883/mculink/", &mqtt.Connector{}},
		{"tcp://localhost:1883", &mqtt.Connector{}},
		{"ws://localhost:8080/link", &websocket.Connector{}},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			c, err := (&Config{RegistryURL: tc.url}).NewConnector()
			require.NoError(t, err)
			require.IsType(t, tc.expect, c)
		})
	}
	_, err := (&Config{RegistryURL: "http://localhost"}).NewConnector()
	require.Error(t, err)
}

func TestConnectRequiresDevice(t *testing.T) {
	_, err := (&Config{RegistryURL: "mqtt://localhost:1883/"}).Connect(context.Background())
	require.Error(t, err)
}
