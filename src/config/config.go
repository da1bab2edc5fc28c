package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adalkiran/webrtc-endpoint-provisioning/src/logging"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// KeyConfigPath is the directory relative file names in the configuration are resolved against.
const KeyConfigPath = "configPath"

var (
	ErrKeyMissing     = errors.New("configuration key missing")
	ErrValueMalformed = errors.New("configuration value malformed")
)

// Node is a read-only view over a hierarchical configuration with dot-separated keys.
type Node interface {
	GetString(key string) (string, error)
	GetUint(key string) (uint, error)
	GetDuration(key string) (time.Duration, error)
}

// ViperNode is the Node implementation used by the server, backed by a viper instance.
type ViperNode struct {
	v *viper.Viper
}

func NewNode(v *viper.Viper) *ViperNode {
	return &ViperNode{v: v}
}

// FromMap builds a node from flat dot-separated keys, e.g. "modules.WebRtcEndpoint.turnURL".
func FromMap(values map[string]interface{}) *ViperNode {
	v := viper.New()
	for key, value := range values {
		v.Set(key, value)
	}
	return NewNode(v)
}

// Load reads the YAML configuration. An explicit configFile must exist; otherwise a file
// named "config" is searched in the current and the parent directory, and running without
// one is allowed. Environment variables override file values, with dots replaced by
// underscores (MODULES_WEBRTCENDPOINT_STUNSERVERPORT).
func Load(configFile string) (*ViperNode, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("../")
	}
	v.SetConfigType("yml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		logging.Warningf(logging.ProtoCONFIG, "No config file found, continuing with defaults")
	}

	if used := v.ConfigFileUsed(); used != "" && v.Get(KeyConfigPath) == nil {
		if abs, err := filepath.Abs(used); err == nil {
			used = abs
		}
		v.SetDefault(KeyConfigPath, filepath.Dir(used))
	}
	return NewNode(v), nil
}

func (n *ViperNode) lookup(key string) (interface{}, error) {
	value := n.v.Get(key)
	if value == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyMissing, key)
	}
	return value, nil
}

func (n *ViperNode) GetString(key string) (string, error) {
	value, err := n.lookup(key)
	if err != nil {
		return "", err
	}
	result, err := cast.ToStringE(value)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %s", ErrValueMalformed, key, err)
	}
	return result, nil
}

func (n *ViperNode) GetUint(key string) (uint, error) {
	value, err := n.lookup(key)
	if err != nil {
		return 0, err
	}
	result, err := cast.ToUintE(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s", ErrValueMalformed, key, err)
	}
	return result, nil
}

func (n *ViperNode) GetDuration(key string) (time.Duration, error) {
	value, err := n.lookup(key)
	if err != nil {
		return 0, err
	}
	result, err := cast.ToDurationE(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s", ErrValueMalformed, key, err)
	}
	return result, nil
}

// StringOr returns the value of key, or fallback when it is missing or malformed.
func StringOr(node Node, key string, fallback string) string {
	value, err := node.GetString(key)
	if err != nil {
		return fallback
	}
	return value
}

// DurationOr returns the value of key, or fallback when it is missing or malformed.
func DurationOr(node Node, key string, fallback time.Duration) time.Duration {
	value, err := node.GetDuration(key)
	if err != nil {
		return fallback
	}
	return value
}

func (n *ViperNode) ToString() string {
	result, err := yaml.Marshal(n.v.AllSettings())
	if err != nil {
		return fmt.Sprintf("Error: %s", err)
	}
	return string(result)
}
