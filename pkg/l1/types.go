package l1

import (
	"context"

	"github.com/robotalks/mculink/pkg/l0/comm"
)

// DefaultDeviceType is the device type announced by mculinkd.
const DefaultDeviceType = "mculink"

// DeviceRef is a reference to a device bridged by mculinkd.
type DeviceRef struct {
	// Type is the device type.
	Type string `json:"type"`
	// ID is unique ID of the device.
	ID string `json:"id"`
}

// Name retrieves the name from ref.
func (r DeviceRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates DeviceRef is valid.
func (r DeviceRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// DeviceMeta provides metadata for a device.
type DeviceMeta struct {
	Description string            `json:"description,omitempty"`
	Links       []string          `json:"links,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// DeviceInfo provides information of a device.
type DeviceInfo struct {
	Ref  DeviceRef  `json:"ref"`
	Meta DeviceMeta `json:"meta"`
}

// Connector is used by host tools to reach a device.
type Connector interface {
	// Discover enumerates announced devices.
	Discover(context.Context) ([]DeviceInfo, error)
	// Connect connects to the specified device.
	Connect(context.Context, DeviceRef) (DeviceConn, error)
}

// DeviceConn is the connection to a device.
type DeviceConn interface {
	// Send queues a frame for transmission.
	Send(comm.Frame) error
	// Frames delivers received frames.
	Frames() <-chan comm.Frame
	// Close closes the connection.
	Close() error
}
