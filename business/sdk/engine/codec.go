package engine

import (
	"encoding/json"
)

// Codec carries plain Go structs as JSON over connect. It registers under
// the name "json" so it replaces the protobuf JSON codec on both ends.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string {
	return "json"
}

// Marshal implements connect.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements connect.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
