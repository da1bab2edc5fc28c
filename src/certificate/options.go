package certificate

import "github.com/adalkiran/webrtc-endpoint-provisioning/src/config"

const (
	KeyTool         = "modules.kurento.WebRtcEndpoint.certtool"
	KeyToolTimeout  = "modules.kurento.WebRtcEndpoint.certtoolTimeout"
	KeyOrganization = "modules.kurento.WebRtcEndpoint.organization"
	KeyTempDir      = "tempDir"
)

// OptionsFromConfig reads the generation settings, falling back to the defaults for
// missing or malformed values.
func OptionsFromConfig(node config.Node) []Option {
	return []Option{
		WithTool(config.StringOr(node, KeyTool, DefaultTool)),
		WithTimeout(config.DurationOr(node, KeyToolTimeout, DefaultTimeout)),
		WithOrganization(config.StringOr(node, KeyOrganization, DefaultOrganization)),
		WithTempBase(config.StringOr(node, KeyTempDir, "")),
	}
}
