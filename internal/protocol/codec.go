// Package protocol implements the wire codec and JSON message envelope
// shared by the server and client transports.
package protocol

// Codec turns application text into wire bytes and back. The default
// codec is a pass-through: the wire payload is the UTF-8 text itself. The
// interface exists so a framed or compressed codec can replace it without
// touching the transport.
type Codec interface {
	Serialize(text string) []byte
	Deserialize(data []byte) (string, bool)
}

// IdentityCodec is the pass-through codec: Serialize and Deserialize are
// inverse for every well-formed input. It rejects only a nil slice, since
// any other byte slice is a valid (if not necessarily valid-UTF-8) string.
type IdentityCodec struct{}

// Serialize returns text as its own bytes.
func (IdentityCodec) Serialize(text string) []byte {
	return []byte(text)
}

// Deserialize returns data as a string. Malformed-input rejection happens
// one layer up, at JSON decode time; the codec layer itself has no
// concept of malformed bytes since it does no interpretation.
func (IdentityCodec) Deserialize(data []byte) (string, bool) {
	if data == nil {
		return "", false
	}
	return string(data), true
}
