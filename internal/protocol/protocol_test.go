package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityCodecRoundTrip(t *testing.T) {
	c := IdentityCodec{}
	for _, s := range []string{"", "hello", `{"type":"PING"}`, "garbage \x00 bytes"} {
		got, ok := c.Deserialize(c.Serialize(s))
		require.True(t, ok)
		assert.Equal(t, s, got)
	}
}

func TestParseEnvelopeLiteralPing(t *testing.T) {
	env, err := ParseEnvelope("PING")
	require.NoError(t, err)
	assert.Equal(t, TypePing, env.Type)
}

func TestParseEnvelopeMissingType(t *testing.T) {
	_, err := ParseEnvelope(`{"action":"create"}`)
	assert.IsType(t, ErrMissingType{}, err)
}

func TestParseEnvelopeGarbageBytes(t *testing.T) {
	_, err := ParseEnvelope("not json at all")
	assert.IsType(t, ErrMissingType{}, err)
}

func TestParseEnvelopeUnknownType(t *testing.T) {
	_, err := ParseEnvelope(`{"type":"nonsense"}`)
	assert.Equal(t, ErrUnknownType{Type: "nonsense"}, err)
}

func TestParseEnvelopeKnownType(t *testing.T) {
	env, err := ParseEnvelope(`{"type":"player_input","input":{"up":true}}`)
	require.NoError(t, err)
	assert.Equal(t, TypePlayerInput, env.Type)

	var msg PlayerInputMsg
	require.NoError(t, Decode(env.Raw, &msg))
	assert.True(t, msg.Input.Up)
}
