package endpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/adalkiran/webrtc-endpoint-provisioning/src/certificate"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/certtool"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/certtool/certtooltest"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	identity certificate.Identity
	err      error
	calls    int
}

func (s *staticSource) Resolve(context.Context, config.Node) (certificate.Identity, error) {
	s.calls++
	return s.identity, s.err
}

var testIdentity = certificate.Identity{Path: "/etc/kurento/cert.pem"}

func TestResolveTraversalDefaults(t *testing.T) {
	settings := ResolveTraversal(config.FromMap(map[string]interface{}{}))

	assert.Equal(t, TraversalSettings{}, settings)
	assert.False(t, settings.StunEnabled())
}

func TestResolveTraversalDefaultStunAddress(t *testing.T) {
	settings := ResolveTraversal(config.FromMap(map[string]interface{}{
		KeyStunServerPort: 3478,
	}))

	assert.Equal(t, uint(3478), settings.StunPort)
	assert.Equal(t, DefaultStunAddress, settings.StunAddress)
	assert.True(t, settings.StunEnabled())
}

func TestResolveTraversalAddressIgnoredWithoutPort(t *testing.T) {
	settings := ResolveTraversal(config.FromMap(map[string]interface{}{
		KeyStunServerAddress: "198.51.100.1",
	}))

	assert.Zero(t, settings.StunPort)
	assert.Empty(t, settings.StunAddress)
}

func TestResolveTraversalMalformedPortDisablesStun(t *testing.T) {
	settings := ResolveTraversal(config.FromMap(map[string]interface{}{
		KeyStunServerPort:    "not-a-port",
		KeyStunServerAddress: "198.51.100.1",
	}))

	assert.False(t, settings.StunEnabled())
}

func TestConfigureWithoutStunOrTurn(t *testing.T) {
	source := &staticSource{identity: testIdentity}
	element := NewProperties()

	_, err := NewResolver(source).Configure(context.Background(), config.FromMap(map[string]interface{}{}), element)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		PropertyCertificatePemFile: "/etc/kurento/cert.pem",
	}, element.All())
	assert.Equal(t, 1, source.calls)
}

func TestConfigureAppliesStunAndTurn(t *testing.T) {
	source := &staticSource{identity: testIdentity}
	element := NewProperties()
	node := config.FromMap(map[string]interface{}{
		KeyStunServerPort:    3478,
		KeyStunServerAddress: "198.51.100.1",
		KeyTurnURL:           "user:secret@198.51.100.2:3478?transport=udp",
	})

	settings, err := NewResolver(source).Configure(context.Background(), node, element)
	require.NoError(t, err)

	assert.True(t, settings.StunEnabled())
	assert.Equal(t, map[string]interface{}{
		PropertyStunServerPort:     uint(3478),
		PropertyStunServer:         "198.51.100.1",
		PropertyTurnURL:            "user:secret@198.51.100.2:3478?transport=udp",
		PropertyCertificatePemFile: "/etc/kurento/cert.pem",
	}, element.All())
}

func TestConfigureEmptyStunAddressSkipsStun(t *testing.T) {
	element := NewProperties()
	node := config.FromMap(map[string]interface{}{
		KeyStunServerPort:    3478,
		KeyStunServerAddress: "",
	})

	settings, err := NewResolver(&staticSource{identity: testIdentity}).Configure(context.Background(), node, element)
	require.NoError(t, err)

	assert.Equal(t, uint(3478), settings.StunPort)
	assert.False(t, settings.StunEnabled())
	_, ok := element.Get(PropertyStunServerPort)
	assert.False(t, ok)
	_, ok = element.Get(PropertyStunServer)
	assert.False(t, ok)
}

func TestConfigureEmptyTurnURLIsApplied(t *testing.T) {
	element := NewProperties()
	node := config.FromMap(map[string]interface{}{KeyTurnURL: ""})

	_, err := NewResolver(&staticSource{identity: testIdentity}).Configure(context.Background(), node, element)
	require.NoError(t, err)

	value, ok := element.Get(PropertyTurnURL)
	assert.True(t, ok)
	assert.Equal(t, "", value)
}

func TestConfigureCertificateFailure(t *testing.T) {
	failure := fmt.Errorf("%w: %w", certificate.ErrProvisioning, certtool.ErrToolInvocationFailed)
	element := NewProperties()
	node := config.FromMap(map[string]interface{}{KeyStunServerPort: 3478})

	settings, err := NewResolver(&staticSource{err: failure}).Configure(context.Background(), node, element)

	require.Error(t, err)
	assert.True(t, errors.Is(err, certificate.ErrProvisioning))
	assert.True(t, settings.StunEnabled())
	_, ok := element.Get(PropertyCertificatePemFile)
	assert.False(t, ok)
	_, ok = element.Get(PropertyStunServer)
	assert.True(t, ok)
}

func TestConfigureWithPresetSettings(t *testing.T) {
	source := &staticSource{identity: testIdentity}
	element := NewProperties()
	node := config.FromMap(map[string]interface{}{KeyStunServerPort: 3478})
	settings := ResolveTraversal(node)

	err := NewResolver(source).ConfigureWith(context.Background(), node, settings, element)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		PropertyStunServerPort:     uint(3478),
		PropertyStunServer:         DefaultStunAddress,
		PropertyCertificatePemFile: "/etc/kurento/cert.pem",
	}, element.All())
	assert.Equal(t, 1, source.calls)
}

func TestConfigureManyEndpointsShareOneGeneratedCertificate(t *testing.T) {
	runner := &certtooltest.Runner{}
	provisioner := certificate.NewProvisioner(runner, certificate.WithTempBase(t.TempDir()))
	defer provisioner.Close()
	resolver := NewResolver(provisioner)
	node := config.FromMap(map[string]interface{}{})

	const endpoints = 8
	elements := make([]*Properties, endpoints)
	var wg sync.WaitGroup
	for i := range elements {
		elements[i] = NewProperties()
		wg.Add(1)
		go func(element *Properties) {
			defer wg.Done()
			_, err := resolver.Configure(context.Background(), node, element)
			assert.NoError(t, err)
		}(elements[i])
	}
	wg.Wait()

	first, ok := elements[0].Get(PropertyCertificatePemFile)
	require.True(t, ok)
	for _, element := range elements {
		value, _ := element.Get(PropertyCertificatePemFile)
		assert.Equal(t, first, value)
	}
	assert.Equal(t, 2, runner.Calls())
}
