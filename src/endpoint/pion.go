package endpoint

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/adalkiran/webrtc-endpoint-provisioning/src/certificate"
	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
)

// PionElement collects the endpoint properties and turns them into a pion PeerConnection
// configuration.
type PionElement struct {
	mu              sync.Mutex
	stunPort        uint
	stunServer      string
	turnURL         string
	hasTurn         bool
	certificateFile string
}

func (e *PionElement) SetProperty(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch name {
	case PropertyStunServerPort:
		if port, ok := value.(uint); ok {
			e.stunPort = port
		}
	case PropertyStunServer:
		e.stunServer, _ = value.(string)
	case PropertyTurnURL:
		e.turnURL, e.hasTurn = value.(string)
	case PropertyCertificatePemFile:
		e.certificateFile, _ = value.(string)
	}
}

// ICEServers returns the STUN server first, then the TURN server.
func (e *PionElement) ICEServers() ([]webrtc.ICEServer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := []webrtc.ICEServer{}
	if e.stunPort != 0 && e.stunServer != "" {
		result = append(result, webrtc.ICEServer{
			URLs: []string{"stun:" + net.JoinHostPort(e.stunServer, strconv.FormatUint(uint64(e.stunPort), 10))},
		})
	}
	if e.hasTurn && e.turnURL != "" {
		turn, err := ParseTurnURL(e.turnURL)
		if err != nil {
			return nil, err
		}
		url := turn.URL()
		if _, err := stun.ParseURI(url); err != nil {
			return nil, fmt.Errorf("turn server %s: %w", url, err)
		}
		server := webrtc.ICEServer{URLs: []string{url}}
		if turn.Username != "" {
			server.Username = turn.Username
			server.Credential = turn.Password
		}
		result = append(result, server)
	}
	return result, nil
}

// Configuration builds the PeerConnection configuration, loading the certificate file
// when one was set.
func (e *PionElement) Configuration() (webrtc.Configuration, error) {
	iceServers, err := e.ICEServers()
	if err != nil {
		return webrtc.Configuration{}, err
	}
	result := webrtc.Configuration{ICEServers: iceServers}

	e.mu.Lock()
	certificateFile := e.certificateFile
	e.mu.Unlock()
	if certificateFile == "" {
		return result, nil
	}

	key, cert, err := certificate.LoadBundle(certificateFile)
	if err != nil {
		return webrtc.Configuration{}, fmt.Errorf("loading endpoint certificate: %w", err)
	}
	result.Certificates = []webrtc.Certificate{webrtc.CertificateFromX509(key, cert)}
	return result, nil
}
