package netutil

import (
	"net"
	"net/url"

	"github.com/pkg/errors"
)

// NormalizeOrigin validates a CORS origin and returns it in the form browsers
// send in the Origin header: scheme, ASCII host and optional port, with no
// trailing slash. The "*" wildcard is returned as is.
func NormalizeOrigin(value string) (string, error) {
	if value == "*" {
		return value, nil
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return "", errors.Wrap(err, "origin is not a url")
	}

	switch parsed.Scheme {
	case "http", "https":
	default:
		return "", errors.Errorf("origin scheme must be http or https, got %q", parsed.Scheme)
	}

	if len(parsed.Path) > 0 && parsed.Path != "/" {
		return "", errors.New("origin must not contain a path")
	}
	if len(parsed.RawQuery) > 0 || len(parsed.Fragment) > 0 || parsed.User != nil {
		return "", errors.New("origin must only contain a scheme and host")
	}

	host := parsed.Hostname()
	if ip := net.ParseIP(host); ip == nil {
		host, err = NormalizeDomainName(host)
		if err != nil {
			return "", err
		}
	} else if ip.To4() == nil {
		host = "[" + host + "]"
	}

	if port := parsed.Port(); len(port) > 0 {
		host = host + ":" + port
	}
	return parsed.Scheme + "://" + host, nil
}
