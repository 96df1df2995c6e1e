package websocket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/robotalks/mculink/pkg/l1"
	"github.com/robotalks/mculink/pkg/l1/comm"
)

// Connector implements l1.Connector by dialing a single link URL,
// e.g. ws://host:port/link. The link is the only device it knows.
type Connector struct {
	URL    string
	Origin string
}

// NewConnector creates a Connector.
func NewConnector(linkURL string) (*Connector, error) {
	parsed, err := url.Parse(linkURL)
	if err != nil {
		return nil, err
	}
	if parsed.Path == "" {
		parsed.Path = DefaultPath
	}
	origin := url.URL{Scheme: "http", Host: parsed.Host}
	if parsed.Scheme == "wss" {
		origin.Scheme = "https"
	}
	return &Connector{URL: parsed.String(), Origin: origin.String()}, nil
}

// Device returns info of the device behind the link.
func (c *Connector) Device() l1.DeviceInfo {
	parsed, _ := url.Parse(c.URL)
	return l1.DeviceInfo{
		Ref:  l1.DeviceRef{Type: l1.DefaultDeviceType, ID: parsed.Host},
		Meta: l1.DeviceMeta{Links: []string{c.URL}},
	}
}

// Discover implements l1.Connector.
func (c *Connector) Discover(context.Context) ([]l1.DeviceInfo, error) {
	return []l1.DeviceInfo{c.Device()}, nil
}

// Connect implements l1.Connector.
func (c *Connector) Connect(ctx context.Context, ref l1.DeviceRef) (l1.DeviceConn, error) {
	if ref.IsValid() && ref != c.Device().Ref {
		return nil, fmt.Errorf("unknown device %s", ref.Name())
	}
	rw, err := Dial(c.URL, c.Origin)
	if err != nil {
		return nil, err
	}
	return comm.NewDeviceConn("ws", rw).Start(ctx), nil
}
