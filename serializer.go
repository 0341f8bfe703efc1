package networkkit

import "encoding/json"

// Serializer is the seam for payload encoding. Failures surface as dedicated
// encoding/decoding error kinds that are never retried.
type Serializer interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSONSerializer is the default Serializer backed by encoding/json.
type JSONSerializer struct{}

// Encode implements the Serializer interface.
func (JSONSerializer) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &Error{Kind: KindEncodingFailed, Message: "encoding payload failed", Cause: err}
	}
	return data, nil
}

// Decode implements the Serializer interface.
func (JSONSerializer) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Kind: KindDecodingFailed, Message: "decoding payload failed", Cause: err}
	}
	return nil
}
