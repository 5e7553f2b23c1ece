// Package security provides mTLS identity for the inter-instance surfaces
// described in SPEC_FULL.md: the fleet admin gRPC control plane and, when
// enabled, server-to-server registry traffic. Adapted from the teacher's
// SPIFFEVerifier (internal/identity/spiffe.go), generalized from "agent"
// identities to "server instance" identities.
package security

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
)

// InstanceIdentity wraps a SPIRE workload X.509 source, giving one server
// instance a verifiable SVID for mTLS with its peers.
type InstanceIdentity struct {
	source *workloadapi.X509Source
	logger *slog.Logger
}

// NewInstanceIdentity connects to the SPIRE agent at socketPath. A short
// timeout keeps a missing SPIRE agent from blocking server startup — the
// caller decides whether mTLS is required or optional for this
// deployment.
func NewInstanceIdentity(socketPath string, logger *slog.Logger) (*InstanceIdentity, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	source, err := workloadapi.NewX509Source(
		ctx,
		workloadapi.WithClientOptions(workloadapi.WithAddr(socketPath)),
	)
	if err != nil {
		return nil, fmt.Errorf("security: connect to SPIRE at %s: %w", socketPath, err)
	}

	logger.Info("security: connected to SPIRE agent", "socket_path", socketPath)
	return &InstanceIdentity{source: source, logger: logger}, nil
}

// ServerTLSConfig returns an mTLS config authorizing any peer presenting a
// valid SVID under the same trust domain. Callers that need a narrower
// authorization policy (e.g. only the admin gRPC client ID) should build
// their own tlsconfig.Authorizer instead.
func (id *InstanceIdentity) ServerTLSConfig(trustDomain string) (*tls.Config, error) {
	td, err := spiffeid.TrustDomainFromString(trustDomain)
	if err != nil {
		return nil, fmt.Errorf("security: invalid trust domain %q: %w", trustDomain, err)
	}
	return tlsconfig.MTLSServerConfig(id.source, id.source, tlsconfig.AuthorizeMemberOf(td)), nil
}

// ClientTLSConfig mirrors ServerTLSConfig for outbound gRPC connections to
// another instance's admin surface.
func (id *InstanceIdentity) ClientTLSConfig(trustDomain string) (*tls.Config, error) {
	td, err := spiffeid.TrustDomainFromString(trustDomain)
	if err != nil {
		return nil, fmt.Errorf("security: invalid trust domain %q: %w", trustDomain, err)
	}
	return tlsconfig.MTLSClientConfig(id.source, id.source, tlsconfig.AuthorizeMemberOf(td)), nil
}

// CurrentSVID returns this instance's current SPIFFE ID string, useful for
// logging and for registry.Registry instance addressing.
func (id *InstanceIdentity) CurrentSVID() (string, error) {
	svid, err := id.source.GetX509SVID()
	if err != nil {
		return "", fmt.Errorf("security: get SVID: %w", err)
	}
	return svid.ID.String(), nil
}

func (id *InstanceIdentity) Close() error {
	return id.source.Close()
}

// ServerSPIFFEID builds the conventional SPIFFE ID for a game server
// instance within trustDomain.
func ServerSPIFFEID(trustDomain, instanceID string) string {
	return fmt.Sprintf("spiffe://%s/server/%s", trustDomain, instanceID)
}
