package netutil

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

const maxDomainNameSize = 253

// NormalizeDomainName validates value as a registrable domain name and returns
// its lower cased ASCII form, without any trailing root dot.
func NormalizeDomainName(value string) (string, error) {
	trimmed := strings.TrimSuffix(value, ".")
	if len(trimmed) == 0 {
		return "", errors.New("domain name is empty")
	}

	ascii, err := idna.Registration.ToASCII(strings.ToLower(trimmed))
	if err != nil {
		return "", errors.Wrap(err, "domain name is invalid")
	}
	if len(ascii) > maxDomainNameSize {
		return "", errors.Errorf("domain name exceeds %d bytes", maxDomainNameSize)
	}
	return ascii, nil
}
