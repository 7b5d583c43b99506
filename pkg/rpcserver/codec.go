package rpcserver

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName identifies the wire codec registered below. The service has no
// .proto/protoc step in this build, so messages are plain structs in
// pkg/wire with hand-written Marshal/Unmarshal pairs instead of
// protobuf-generated ones; binaryMessage lets grpc's generic transport
// invoke them without reflection.
const codecName = "smtkv-binary"

// binaryMessage is implemented by every pkg/wire request/response type via
// the MarshalBinary/UnmarshalBinary methods in pkg/wire/binary.go.
type binaryMessage interface {
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

type binaryCodec struct{}

func (binaryCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(binaryMessage)
	if !ok {
		return nil, fmt.Errorf("smtkv-binary: %T does not implement binaryMessage", v)
	}
	return m.MarshalBinary()
}

func (binaryCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(binaryMessage)
	if !ok {
		return fmt.Errorf("smtkv-binary: %T does not implement binaryMessage", v)
	}
	return m.UnmarshalBinary(data)
}

func (binaryCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(binaryCodec{})
}
