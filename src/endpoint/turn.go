package endpoint

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const defaultTurnPort = 3478

// TurnServer is a parsed turnURL of the form user:password@host:port?transport=udp|tcp|tls.
// Credentials, port and transport are optional.
type TurnServer struct {
	Username  string
	Password  string
	Host      string
	Port      int
	Transport string
}

func ParseTurnURL(turnURL string) (TurnServer, error) {
	var result TurnServer
	rest := turnURL

	if at := strings.LastIndex(rest, "@"); at >= 0 {
		credentials := rest[:at]
		rest = rest[at+1:]
		user, password, ok := strings.Cut(credentials, ":")
		if !ok {
			return TurnServer{}, fmt.Errorf("turn url %q: credentials must be user:password", redactTurnURL(turnURL))
		}
		result.Username = user
		result.Password = password
	}

	if hostPort, query, ok := strings.Cut(rest, "?"); ok {
		rest = hostPort
		for _, param := range strings.Split(query, "&") {
			name, value, _ := strings.Cut(param, "=")
			if name != "transport" {
				continue
			}
			switch value {
			case "udp", "tcp", "tls":
				result.Transport = value
			default:
				return TurnServer{}, fmt.Errorf("turn url %q: unsupported transport %q", redactTurnURL(turnURL), value)
			}
		}
	}

	host, port, err := net.SplitHostPort(rest)
	if err != nil {
		// Only a bare host or a bracketed IPv6 literal may omit the port.
		switch {
		case !strings.Contains(rest, ":"):
			host = rest
		case strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]"):
			host = rest[1 : len(rest)-1]
		default:
			return TurnServer{}, fmt.Errorf("turn url %q: invalid address %q", redactTurnURL(turnURL), rest)
		}
		result.Port = defaultTurnPort
	} else {
		result.Port, err = strconv.Atoi(port)
		if err != nil || result.Port <= 0 || result.Port > 65535 {
			return TurnServer{}, fmt.Errorf("turn url %q: invalid port %q", redactTurnURL(turnURL), port)
		}
	}
	if host == "" {
		return TurnServer{}, fmt.Errorf("turn url %q: missing host", redactTurnURL(turnURL))
	}
	result.Host = host
	return result, nil
}

// URL renders the server as an ICE server URL (RFC 7065).
func (s TurnServer) URL() string {
	scheme := "turn"
	transport := s.Transport
	if transport == "tls" {
		scheme = "turns"
		transport = "tcp"
	}
	result := scheme + ":" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	if transport != "" {
		result += "?transport=" + transport
	}
	return result
}

// redactTurnURL hides the password of a turnURL so it can be logged.
func redactTurnURL(turnURL string) string {
	at := strings.LastIndex(turnURL, "@")
	if at < 0 {
		return turnURL
	}
	user, _, ok := strings.Cut(turnURL[:at], ":")
	if !ok {
		return turnURL
	}
	return user + ":***" + turnURL[at:]
}
