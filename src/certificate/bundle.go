package certificate

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// LoadBundle reads a PEM file holding a private key and a certificate, in any order, as
// written by certtool or configured by the operator. Text between the blocks is ignored.
func LoadBundle(path string) (crypto.PrivateKey, *x509.Certificate, error) {
	bundle, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var key crypto.PrivateKey
	var certificate *x509.Certificate
	for rest := bundle; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch block.Type {
		case "CERTIFICATE":
			if certificate != nil {
				continue
			}
			if certificate, err = x509.ParseCertificate(block.Bytes); err != nil {
				return nil, nil, fmt.Errorf("%s: parsing certificate: %w", path, err)
			}
		case "PRIVATE KEY", "RSA PRIVATE KEY", "EC PRIVATE KEY":
			if key != nil {
				continue
			}
			if key, err = parsePrivateKey(block); err != nil {
				return nil, nil, fmt.Errorf("%s: parsing private key: %w", path, err)
			}
		}
	}

	if key == nil {
		return nil, nil, fmt.Errorf("%s: no private key found", path)
	}
	if certificate == nil {
		return nil, nil, fmt.Errorf("%s: no certificate found", path)
	}
	return key, certificate, nil
}

func parsePrivateKey(block *pem.Block) (crypto.PrivateKey, error) {
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, errors.New("empty private key")
	}
	return key, nil
}
