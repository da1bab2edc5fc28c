package endpoint

import (
	"context"

	"github.com/adalkiran/webrtc-endpoint-provisioning/src/certificate"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/common"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/config"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/logging"
)

const (
	KeyStunServerPort    = "modules.WebRtcEndpoint.stunServerPort"
	KeyStunServerAddress = "modules.WebRtcEndpoint.stunServerAddress"
	KeyTurnURL           = "modules.WebRtcEndpoint.turnURL"

	DefaultStunPort    uint = 0
	DefaultStunAddress      = "77.72.174.167"

	PropertyStunServerPort     = "stun-server-port"
	PropertyStunServer         = "stun-server"
	PropertyTurnURL            = "turn-url"
	PropertyCertificatePemFile = "certificate-pem-file"
)

// Element is the transport object receiving the resolved values as named properties.
type Element interface {
	SetProperty(name string, value interface{})
}

// CertificateSource hands out the identity shared by all endpoints. *certificate.Provisioner
// implements it.
type CertificateSource interface {
	Resolve(ctx context.Context, node config.Node) (certificate.Identity, error)
}

type TraversalSettings struct {
	// StunPort 0 disables STUN.
	StunPort    uint
	StunAddress string
	TurnURL     string
	// TurnConfigured tells an unset TURN URL apart from one configured as empty.
	TurnConfigured bool
}

// StunEnabled reports whether STUN properties are applied. A non-zero port with an
// explicitly empty address still leaves STUN off.
func (s TraversalSettings) StunEnabled() bool {
	return s.StunPort != 0 && s.StunAddress != ""
}

// ResolveTraversal reads the STUN and TURN settings, substituting defaults for missing keys.
func ResolveTraversal(node config.Node) TraversalSettings {
	var result TraversalSettings

	port, err := node.GetUint(KeyStunServerPort)
	if err != nil {
		logging.Infof(logging.ProtoSTUN, "Setting default port %d to stun server", DefaultStunPort)
		port = DefaultStunPort
	}
	result.StunPort = port

	if port != 0 {
		address, err := node.GetString(KeyStunServerAddress)
		if err != nil {
			logging.Infof(logging.ProtoSTUN, "Setting default address %s to stun server", DefaultStunAddress)
			address = DefaultStunAddress
		}
		result.StunAddress = address
	}

	if turnURL, err := node.GetString(KeyTurnURL); err == nil {
		result.TurnURL = turnURL
		result.TurnConfigured = true
	}
	return result
}

type Resolver struct {
	certificates CertificateSource
}

func NewResolver(certificates CertificateSource) *Resolver {
	return &Resolver{certificates: certificates}
}

// Configure applies the traversal settings and the certificate to element. The
// certificate is requested on every call. When no identity could be provisioned the
// error is returned and certificate-pem-file is left unset; the traversal properties
// are applied regardless.
func (r *Resolver) Configure(ctx context.Context, node config.Node, element Element) (TraversalSettings, error) {
	settings := ResolveTraversal(node)
	return settings, r.ConfigureWith(ctx, node, settings, element)
}

// ConfigureWith is Configure with traversal settings resolved once by the caller, for
// composition roots configuring many endpoints from the same node.
func (r *Resolver) ConfigureWith(ctx context.Context, node config.Node, settings TraversalSettings, element Element) error {
	if settings.StunEnabled() {
		logging.Infof(logging.ProtoSTUN, "stun port %d", settings.StunPort)
		element.SetProperty(PropertyStunServerPort, settings.StunPort)
		logging.Infof(logging.ProtoSTUN, "stun address %s", settings.StunAddress)
		element.SetProperty(PropertyStunServer, settings.StunAddress)
	}

	if settings.TurnConfigured {
		logging.Infof(logging.ProtoTURN, "turn info: %s", redactTurnURL(settings.TurnURL))
		element.SetProperty(PropertyTurnURL, settings.TurnURL)
	}

	identity, err := r.certificates.Resolve(ctx, node)
	if err != nil {
		logging.Errorf(logging.ProtoCERT, "Endpoint configured without a certificate: %s", err)
		return err
	}
	element.SetProperty(PropertyCertificatePemFile, identity.Path)
	return nil
}

// MaskAddresses adds the configured STUN and TURN hosts to the logging blacklist.
func MaskAddresses(settings TraversalSettings) {
	if settings.StunAddress != "" {
		logging.AddToBlacklist(settings.StunAddress, common.MaskIPString(settings.StunAddress))
	}
	if settings.TurnConfigured {
		if turn, err := ParseTurnURL(settings.TurnURL); err == nil && turn.Host != "" {
			logging.AddToBlacklist(turn.Host, common.MaskIPString(turn.Host))
		}
	}
}
