package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStringMissingAndMalformed(t *testing.T) {
	node := FromMap(map[string]interface{}{
		"modules.WebRtcEndpoint.turnURL": "user:pass@turn.example.org:3478",
		"modules.WebRtcEndpoint.nested":  map[string]interface{}{"a": 1},
	})

	value, err := node.GetString("modules.WebRtcEndpoint.turnURL")
	require.NoError(t, err)
	assert.Equal(t, "user:pass@turn.example.org:3478", value)

	_, err = node.GetString("modules.WebRtcEndpoint.stunServerAddress")
	assert.ErrorIs(t, err, ErrKeyMissing)

	_, err = node.GetString("modules.WebRtcEndpoint.nested")
	assert.ErrorIs(t, err, ErrValueMalformed)
}

func TestGetUint(t *testing.T) {
	node := FromMap(map[string]interface{}{
		"port":     3478,
		"text":     "5349",
		"negative": -1,
		"garbage":  "not-a-port",
	})

	port, err := node.GetUint("port")
	require.NoError(t, err)
	assert.Equal(t, uint(3478), port)

	port, err = node.GetUint("text")
	require.NoError(t, err)
	assert.Equal(t, uint(5349), port)

	_, err = node.GetUint("negative")
	assert.ErrorIs(t, err, ErrValueMalformed)

	_, err = node.GetUint("garbage")
	assert.ErrorIs(t, err, ErrValueMalformed)

	_, err = node.GetUint("absent")
	assert.ErrorIs(t, err, ErrKeyMissing)
}

func TestFallbackHelpers(t *testing.T) {
	node := FromMap(map[string]interface{}{
		"timeout": "5s",
		"broken":  "soon",
	})

	assert.Equal(t, 5*time.Second, DurationOr(node, "timeout", time.Minute))
	assert.Equal(t, time.Minute, DurationOr(node, "broken", time.Minute))
	assert.Equal(t, "certtool", StringOr(node, "tool", "certtool"))
}

func TestKeysAreCaseInsensitive(t *testing.T) {
	node := FromMap(map[string]interface{}{
		"modules.kurento.WebRtcEndpoint.pemCertificate": "cert.pem",
	})

	value, err := node.GetString("modules.kurento.webrtcendpoint.pemcertificate")
	require.NoError(t, err)
	assert.Equal(t, "cert.pem", value)
}

func TestLoadSetsConfigPathFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	content := "modules:\n  WebRtcEndpoint:\n    stunServerPort: 3478\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	node, err := Load(file)
	require.NoError(t, err)

	configPath, err := node.GetString(KeyConfigPath)
	require.NoError(t, err)
	assert.Equal(t, dir, configPath)

	port, err := node.GetUint("modules.WebRtcEndpoint.stunServerPort")
	require.NoError(t, err)
	assert.Equal(t, uint(3478), port)

	assert.Contains(t, node.ToString(), "stunserverport: 3478")
}

func TestLoadKeepsExplicitConfigPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(file, []byte("configPath: /etc/app\n"), 0o600))

	node, err := Load(file)
	require.NoError(t, err)

	configPath, err := node.GetString(KeyConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "/etc/app", configPath)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
