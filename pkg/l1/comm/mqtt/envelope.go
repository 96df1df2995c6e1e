package mqtt

import (
	"time"

	"github.com/golang/protobuf/proto"
)

// Envelope carries one encoded frame over MQTT.
//
//	message Envelope {
//	  string device = 1;
//	  uint64 seq = 2;
//	  bytes payload = 3;
//	  int64 timestamp = 4;
//	}
type Envelope struct {
	Device    string `protobuf:"bytes,1,opt,name=device,proto3" json:"device,omitempty"`
	Seq       uint64 `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	Payload   []byte `protobuf:"bytes,3,opt,name=payload,proto3" json:"payload,omitempty"`
	Timestamp int64  `protobuf:"varint,4,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// Reset implements proto.Message.
func (m *Envelope) Reset() { *m = Envelope{} }

// String implements proto.Message.
func (m *Envelope) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Envelope) ProtoMessage() {}

// Time returns Timestamp as time.Time.
func (m *Envelope) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// EncodeEnvelope wraps an encoded frame.
func EncodeEnvelope(device string, seq uint64, frame []byte) ([]byte, error) {
	return proto.Marshal(&Envelope{
		Device:    device,
		Seq:       seq,
		Payload:   frame,
		Timestamp: time.Now().UnixNano(),
	})
}

// DecodeEnvelope parses an Envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
