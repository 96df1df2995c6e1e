package device

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/mculink/pkg/l1"
	"github.com/robotalks/mculink/pkg/l1/comm/uart"
	"github.com/robotalks/mculink/pkg/l1/env"
	"github.com/robotalks/mculink/pkg/telemetry"
)

// Config provides options to setup the links of mculinkd.
// An empty address disables the corresponding link.
type Config struct {
	Info l1.DeviceInfo

	// ConfigFile is an optional .toml or .yaml file. Values from the
	// file override defaults and env vars, explicit flags override the file.
	ConfigFile string

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string

	UART uart.Config

	WebSocketAddr string

	TCPAddr     string
	TCPPrefixed bool
	TCPScan     bool
	TCPTarget   string

	UDPAddr   string
	UDPTarget string

	// AltQueues uses the alternate queue capacity on every link.
	AltQueues bool

	TelemetryInterval time.Duration
	StatsInterval     time.Duration
}

var defaultConfig = Config{
	Info: l1.DeviceInfo{
		Ref:  l1.DeviceRef{Type: l1.DefaultDeviceType},
		Meta: l1.DeviceMeta{Description: "MCU frame link"},
	},
	MQTTBrokerURL:     "mqtt://localhost:1883/mculink/",
	UART:              uart.DefaultConfig(),
	WebSocketAddr:     ":8080",
	TCPScan:           true,
	TelemetryInterval: telemetry.DefaultInterval,
	StatsInterval:     time.Minute,
}

func init() {
	if val := os.Getenv("MCULINK_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	} else {
		defaultConfig.Info.Ref.ID = env.MachineID()
	}
	if val := os.Getenv("MCULINK_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("MCULINK_UART"); val != "" {
		defaultConfig.UART.Port = val
	}
	if val := os.Getenv("MCULINK_CONFIG"); val != "" {
		defaultConfig.ConfigFile = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, &defaultConfig)
}

// SetupFlagSet binds c to fs.
func SetupFlagSet(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Info.Ref.ID, "id", c.Info.Ref.ID, "Device ID")
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Config file (.toml, .yaml)")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	fs.StringVar(&c.UART.Port, "uart", c.UART.Port, "Serial port, empty to disable")
	fs.IntVar(&c.UART.BaudRate, "baud", c.UART.BaudRate, "Serial baud rate")
	fs.BoolVar(&c.UART.Scan, "uart-scan", c.UART.Scan, "Split serial input on frame markers")
	fs.StringVar(&c.WebSocketAddr, "ws", c.WebSocketAddr, "Websocket listen address, empty to disable")
	fs.StringVar(&c.TCPAddr, "tcp", c.TCPAddr, "TCP listen address, empty to disable")
	fs.BoolVar(&c.TCPPrefixed, "tcp-prefixed", c.TCPPrefixed, "Expect length prefixed chunks over TCP")
	fs.BoolVar(&c.TCPScan, "tcp-scan", c.TCPScan, "Resynchronize TCP input on start markers")
	fs.StringVar(&c.TCPTarget, "tcp-target", c.TCPTarget, "TCP peer receiving reports")
	fs.StringVar(&c.UDPAddr, "udp", c.UDPAddr, "UDP listen address, empty to disable")
	fs.StringVar(&c.UDPTarget, "udp-target", c.UDPTarget, "UDP peer receiving reports")
	fs.BoolVar(&c.AltQueues, "alt-queues", c.AltQueues, "Use larger link queues")
	fs.DurationVar(&c.TelemetryInterval, "telemetry-interval", c.TelemetryInterval, "Telemetry streaming interval")
	fs.DurationVar(&c.StatsInterval, "stats-interval", c.StatsInterval, "Interval of logging link stats, 0 to disable")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config from defaults and the config file.
// Flags explicitly set on the command line keep their values.
func NewConfig() (*Config, error) {
	conf := defaultConfig
	if conf.ConfigFile == "" {
		return &conf, nil
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if err := conf.LoadFile(conf.ConfigFile, func(name string) bool { return set[name] }); err != nil {
		return nil, err
	}
	return &conf, nil
}

type fileConfig struct {
	ID          string            `toml:"id" yaml:"id"`
	Description string            `toml:"description" yaml:"description"`
	Labels      map[string]string `toml:"labels" yaml:"labels"`
	MQTT        *string           `toml:"mqtt" yaml:"mqtt"`
	UART        struct {
		Port        *string `toml:"port" yaml:"port"`
		Baud        int     `toml:"baud" yaml:"baud"`
		Scan        *bool   `toml:"scan" yaml:"scan"`
		ReadTimeout string  `toml:"read_timeout" yaml:"read_timeout"`
	} `toml:"uart" yaml:"uart"`
	WebSocket *string `toml:"websocket" yaml:"websocket"`
	TCP       struct {
		Listen   *string `toml:"listen" yaml:"listen"`
		Prefixed *bool   `toml:"prefixed" yaml:"prefixed"`
		Scan     *bool   `toml:"scan" yaml:"scan"`
		Target   *string `toml:"target" yaml:"target"`
	} `toml:"tcp" yaml:"tcp"`
	UDP struct {
		Listen *string `toml:"listen" yaml:"listen"`
		Target *string `toml:"target" yaml:"target"`
	} `toml:"udp" yaml:"udp"`
	AltQueues         *bool  `toml:"alt_queues" yaml:"alt_queues"`
	TelemetryInterval string `toml:"telemetry_interval" yaml:"telemetry_interval"`
	StatsInterval     string `toml:"stats_interval" yaml:"stats_interval"`
}

// LoadFile applies a config file. isSet reports flags which must not
// be overridden, it can be nil.
func (c *Config) LoadFile(path string, isSet func(string) bool) error {
	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("load config %s: yaml: %w", path, err)
		}
	default:
		return fmt.Errorf("load config %s: unknown format %q", path, ext)
	}
	if isSet == nil {
		isSet = func(string) bool { return false }
	}
	return c.apply(&raw, isSet)
}

func (c *Config) apply(raw *fileConfig, isSet func(string) bool) error {
	setString := func(name string, dst *string, val *string) {
		if val != nil && !isSet(name) {
			*dst = strings.TrimSpace(*val)
		}
	}
	setBool := func(name string, dst *bool, val *bool) {
		if val != nil && !isSet(name) {
			*dst = *val
		}
	}
	setDuration := func(name string, dst *time.Duration, val string) error {
		if val == "" || isSet(name) {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = d
		return nil
	}

	if id := strings.TrimSpace(raw.ID); id != "" && !isSet("id") {
		c.Info.Ref.ID = id
	}
	if raw.Description != "" {
		c.Info.Meta.Description = raw.Description
	}
	if len(raw.Labels) > 0 {
		c.Info.Meta.Labels = raw.Labels
	}
	setString("mqtt", &c.MQTTBrokerURL, raw.MQTT)
	setString("uart", &c.UART.Port, raw.UART.Port)
	if raw.UART.Baud > 0 && !isSet("baud") {
		c.UART.BaudRate = raw.UART.Baud
	}
	setBool("uart-scan", &c.UART.Scan, raw.UART.Scan)
	if err := setDuration("read_timeout", &c.UART.ReadTimeout, raw.UART.ReadTimeout); err != nil {
		return err
	}
	setString("ws", &c.WebSocketAddr, raw.WebSocket)
	setString("tcp", &c.TCPAddr, raw.TCP.Listen)
	setBool("tcp-prefixed", &c.TCPPrefixed, raw.TCP.Prefixed)
	setBool("tcp-scan", &c.TCPScan, raw.TCP.Scan)
	setString("tcp-target", &c.TCPTarget, raw.TCP.Target)
	setString("udp", &c.UDPAddr, raw.UDP.Listen)
	setString("udp-target", &c.UDPTarget, raw.UDP.Target)
	setBool("alt-queues", &c.AltQueues, raw.AltQueues)
	if err := setDuration("telemetry-interval", &c.TelemetryInterval, raw.TelemetryInterval); err != nil {
		return err
	}
	return setDuration("stats-interval", &c.StatsInterval, raw.StatsInterval)
}
