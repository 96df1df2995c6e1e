package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/mculink/pkg/l1"
	"github.com/robotalks/mculink/pkg/l1/comm"
)

// Connector implements l1.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// ParseMeta decodes a retained meta message published on topic.
// ok is false for cleared or foreign topics.
func ParseMeta(topic string, payload []byte) (info l1.DeviceInfo, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || "/"+items[2] != TopicMeta || len(payload) == 0 {
		return
	}
	if err := json.Unmarshal(payload, &info); err != nil {
		info = l1.DeviceInfo{}
	}
	info.Ref = l1.DeviceRef{Type: items[0], ID: items[1]}
	return info, true
}

// Discover implements l1.Connector.
func (c *Connector) Discover(ctx context.Context) (res []l1.DeviceInfo, err error) {
	q := New(c.options, c.topicPrefix)
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return
	}
	defer q.Close()
	resCh := make(chan l1.DeviceInfo, 1)
	sub := q.Sub("+/+"+TopicMeta, Handler(func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case resCh <- info:
			case <-time.After(time.Second):
			}
		}
	}))
	defer sub.Close()

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// Connect implements l1.Connector.
func (c *Connector) Connect(ctx context.Context, ref l1.DeviceRef) (l1.DeviceConn, error) {
	q := New(c.options, c.topicPrefix)
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	rw := NewReadWriter(q).ForClient(ref).Open()
	return &DeviceConn{
		DeviceConn: comm.NewDeviceConn("mqtt", rw).Start(ctx),
		PubSub:     q,
	}, nil
}

// DeviceConn implements l1.DeviceConn using MQTT.
type DeviceConn struct {
	*comm.DeviceConn
	PubSub *PubSub
}

// Close implements l1.DeviceConn.
func (c *DeviceConn) Close() error {
	c.DeviceConn.Close()
	return c.PubSub.Close()
}
