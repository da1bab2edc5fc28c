package certificate

import (
	"bytes"
	"crypto/sha256"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/adalkiran/webrtc-endpoint-provisioning/src/logging"
)

// Fingerprint returns the SHA-256 fingerprint of the first CERTIFICATE block in a PEM
// bundle, formatted as upper case hex pairs joined by colons.
func Fingerprint(bundle []byte) (string, error) {
	rest := bundle
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return "", fmt.Errorf("no CERTIFICATE block found")
		}
		if block.Type == "CERTIFICATE" {
			return fingerprintFromBytes(block.Bytes), nil
		}
	}
}

func fingerprintFromBytes(der []byte) string {
	fingerprint := sha256.Sum256(der)

	var buf bytes.Buffer
	for i, f := range fingerprint {
		if i > 0 {
			fmt.Fprintf(&buf, ":")
		}
		fmt.Fprintf(&buf, "%02X", f)
	}
	return buf.String()
}

func logFingerprint(path string) {
	bundle, err := os.ReadFile(path)
	if err != nil {
		logging.Warningf(logging.ProtoCERT, "Could not read generated certificate %s: %s", path, err)
		return
	}
	fingerprint, err := Fingerprint(bundle)
	if err != nil {
		logging.Warningf(logging.ProtoCERT, "Generated certificate %s: %s", path, err)
		return
	}
	logging.Infof(logging.ProtoCERT, "Self signed certificate created at <u>%s</u> with fingerprint <u>%s</u>", path, fingerprint)
}
