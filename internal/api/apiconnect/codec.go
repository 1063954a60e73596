package apiconnect

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec serializes the plain Go messages of package api. It replaces
// Connect's protojson codec, which only accepts protobuf messages.
type jsonCodec struct {
	name string
}

func (c jsonCodec) Name() string { return c.name }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// withHandlerCodecs registers the codec under both JSON content types
// Connect clients send.
func withHandlerCodecs() connect.Option {
	return connect.WithOptions(
		connect.WithCodec(jsonCodec{name: "json"}),
		connect.WithCodec(jsonCodec{name: "json; charset=utf-8"}),
	)
}

func withClientCodec() connect.Option {
	return connect.WithCodec(jsonCodec{name: "json"})
}
