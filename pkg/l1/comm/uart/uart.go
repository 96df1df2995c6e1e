// Package uart links frame queues to a serial port.
package uart

import (
	"io"
	"time"

	"go.bug.st/serial"

	l0 "github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/l1/comm/stream"
)

const (
	// DefaultBaudRate is the default line speed.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds each read so the link notices cancellation.
	DefaultReadTimeout = 10 * time.Millisecond
)

// Config defines serial port settings.
type Config struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
	// Scan splits the byte stream on markers. Without it every read
	// is taken as one frame, so frames arriving in the same read merge.
	Scan bool
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		BaudRate:    DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
		Scan:        true,
	}
}

// Mode returns the 8N1 serial mode.
func (c Config) Mode() *serial.Mode {
	baud := c.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the serial port.
func Open(c Config) (serial.Port, error) {
	port, err := serial.Open(c.Port, c.Mode())
	if err != nil {
		return nil, err
	}
	timeout := c.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// Ports lists available serial ports.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// Dial opens the port and creates a link over it.
func Dial(c Config, rx, tx *l0.Queue) (*stream.Link, error) {
	port, err := Open(c)
	if err != nil {
		return nil, err
	}
	return NewLink(c, port, rx, tx), nil
}

// NewLink creates a link over an opened port.
func NewLink(c Config, port io.ReadWriteCloser, rx, tx *l0.Queue) *stream.Link {
	return stream.NewLink("uart", port, rx, tx).WithScan(c.Scan)
}
