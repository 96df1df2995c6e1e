package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	"github.com/robotalks/mculink/pkg/l1"
)

// Announcer owns the device side MQTT client. It publishes device
// info as a retained message on name/meta while connected, and a
// will clears it when the connection is lost.
type Announcer struct {
	PubSub *PubSub
	Info   l1.DeviceInfo

	infoJSON []byte
}

// NewAnnouncer creates an Announcer.
func NewAnnouncer(brokerURL string, info l1.DeviceInfo) (*Announcer, error) {
	infoJSON, err := json.Marshal(&info)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.Name()+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("mculink:" + info.Ref.Name())
	}
	a := &Announcer{
		PubSub:   New(opts, topicPrefix),
		Info:     info,
		infoJSON: infoJSON,
	}
	a.PubSub.OnConnect = func(*PubSub) { a.announce() }
	return a, nil
}

// ReadWriter creates the device side ReadWriter.
func (a *Announcer) ReadWriter() *ReadWriter {
	return NewReadWriter(a.PubSub).ForDevice(a.Info.Ref).Open()
}

// Run implements Runnable.
func (a *Announcer) Run(ctx context.Context) error {
	token := a.PubSub.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	a.PubSub.PubWith(a.Info.Ref.Name()+TopicMeta, nil, 1, true).Wait()
	a.PubSub.Close()
	return ctx.Err()
}

func (a *Announcer) announce() {
	glog.Infof("announce %s", a.Info.Ref.Name())
	a.PubSub.PubWith(a.Info.Ref.Name()+TopicMeta, a.infoJSON, 1, true)
}
