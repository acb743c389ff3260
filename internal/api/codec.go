package api

import "encoding/json"

// CodecName is the Connect codec name for plain JSON messages. It replaces
// the default protobuf JSON codec registered under the same name.
const CodecName = "json"

// JSONCodec marshals messages with encoding/json.
type JSONCodec struct{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return CodecName }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
