package codec

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype clients pass with grpc.CallContentSubtype.
const Name = "json"

func init() {
	encoding.RegisterCodec(JSON{})
}

// JSON carries plain Go structs over gRPC.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSON) Name() string {
	return Name
}
