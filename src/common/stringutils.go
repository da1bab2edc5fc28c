package common

import (
	"net"
	"strings"
)

func JoinSlice(separator string, indent bool, lines ...string) string {
	result := ""
	for i, line := range lines {
		if indent {
			result += "\t"
		}
		result += line
		if i < len(lines)-1 {
			result += separator
		}
	}
	return result
}

// CommandLine renders a program and its arguments the way a shell user would type them.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, part := range append([]string{name}, args...) {
		if part == "" || strings.ContainsAny(part, " \t\"'") {
			part = "'" + strings.ReplaceAll(part, "'", `'\''`) + "'"
		}
		parts = append(parts, part)
	}
	return JoinSlice(" ", false, parts...)
}

// MaskIPString hides the last two octets of an IPv4 address. Anything else is returned as is.
func MaskIPString(ip string) string {
	if parsed := net.ParseIP(ip); parsed == nil || parsed.To4() == nil {
		return ip
	}
	parts := strings.Split(ip, ".")
	result := ""
	for i, part := range parts {
		if i > 0 {
			result += "."
		}
		if i < 2 {
			result += part
		} else {
			result += "***"
		}
	}
	return result
}
