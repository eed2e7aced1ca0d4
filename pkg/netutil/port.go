package netutil

import (
	"fmt"
	"net"
	"strconv"

	"github.com/pkg/errors"
)

// GetAvailablePortForAddress returns a port that is currently free on address.
// The port is released before returning, so callers should bind it promptly.
func GetAvailablePortForAddress(address string) (int32, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:0", address))
	if err != nil {
		return 0, errors.Wrapf(err, "error listening on %s", address)
	}
	defer lis.Close()

	_, portString, err := net.SplitHostPort(lis.Addr().String())
	if err != nil {
		return 0, err
	}

	port, err := strconv.Atoi(portString)
	return int32(port), err
}
