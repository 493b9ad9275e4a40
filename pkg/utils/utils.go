package utils

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strings"
)

// MACPrefix is a locally administered unicast prefix; the low 32 bits are
// filled with the IPv4 address.
const MACPrefix uint64 = 0xEE0000000000

var ErrNotIPv4 = errors.New("not an ipv4 address")

func IPv4ToUint32(ip string) (uint32, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.To4() == nil {
		return 0, fmt.Errorf("%w: %q", ErrNotIPv4, ip)
	}

	return binary.BigEndian.Uint32(parsed.To4()), nil
}

// GenerateMAC derives a MAC address from an IPv4 address, e.g.
// 192.168.10.5 becomes ee:00:c0:a8:0a:05.
func GenerateMAC(ip string) (string, error) {
	n, err := IPv4ToUint32(ip)
	if err != nil {
		return "", err
	}

	mac := make(net.HardwareAddr, 8)
	binary.BigEndian.PutUint64(mac, MACPrefix+uint64(n))

	return mac[2:].String(), nil
}
