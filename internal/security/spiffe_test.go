package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerSPIFFEIDFormatsURI(t *testing.T) {
	got := ServerSPIFFEID("ocx.example.com", "instance-1")
	assert.Equal(t, "spiffe://ocx.example.com/server/instance-1", got)
}

func TestNewInstanceIdentityFailsWithoutSPIREAgent(t *testing.T) {
	_, err := NewInstanceIdentity("unix:///tmp/ocx-test-spire-agent-that-does-not-exist.sock", nil)
	assert.Error(t, err)
}
