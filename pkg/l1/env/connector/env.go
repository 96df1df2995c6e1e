package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/robotalks/mculink/pkg/l1"
	"github.com/robotalks/mculink/pkg/l1/comm/mqtt"
	"github.com/robotalks/mculink/pkg/l1/comm/websocket"
)

// Config provides common options to setup Connectors.
type Config struct {
	// Device is the name of the device to connect, as type/id.
	// The type can be omitted for the default device type.
	Device string

	// RegistryURL specifies where devices are found.
	// e.g. mqtt://host:port/topic-prefix or ws://host:port/link
	RegistryURL string
}

var defaultConfig = Config{
	RegistryURL: "mqtt://localhost:1883/mculink/",
}

func init() {
	if val := os.Getenv("MCULINK_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("MCULINK_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Device to connect, as type/id.")
	flag.StringVar(&defaultConfig.RegistryURL, "registry", defaultConfig.RegistryURL, "Device Registry URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ParseRef parses a device name as type/id. A name without type
// refers to a device of the default type.
func ParseRef(name string) l1.DeviceRef {
	if pos := strings.Index(name, "/"); pos >= 0 {
		return l1.DeviceRef{Type: name[:pos], ID: name[pos+1:]}
	}
	return l1.DeviceRef{Type: l1.DefaultDeviceType, ID: name}
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "tcp", "ssl":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws", "wss":
		return websocket.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to the device.
// With a websocket registry the device can be omitted.
func (c *Config) Connect(ctx context.Context) (l1.DeviceConn, error) {
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	var ref l1.DeviceRef
	if c.Device != "" {
		ref = ParseRef(c.Device)
	}
	if _, direct := connector.(*websocket.Connector); !direct && !ref.IsValid() {
		return nil, fmt.Errorf("device type and id must be specified")
	}
	return connector.Connect(ctx, ref)
}

// MustConnect connects to the device or fails.
func (c *Config) MustConnect(ctx context.Context) l1.DeviceConn {
	conn, err := c.Connect(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
