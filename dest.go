package wol

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// DefaultPort is the UDP port used when none is configured.
	DefaultPort = 60000

	// LimitedBroadcast is 255.255.255.255.
	LimitedBroadcast uint32 = 0xFFFFFFFF
)

// Destination is where a magic packet is sent. Broadcast holds an IPv4
// address with its first octet in the most significant byte.
// Quiet is not used by this package; it is carried for callers that report
// on a successful send.
type Destination struct {
	Broadcast uint32
	Port      uint16
	Quiet     bool
}

// DefaultDestination is the limited broadcast address on DefaultPort.
func DefaultDestination() Destination {
	return Destination{Broadcast: LimitedBroadcast, Port: DefaultPort}
}

// Addr returns the broadcast address as an IPv4 netip.Addr.
func (d Destination) Addr() netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], d.Broadcast)
	return netip.AddrFrom4(b)
}

// UDPAddr returns the destination as a *net.UDPAddr.
func (d Destination) UDPAddr() *net.UDPAddr {
	return net.UDPAddrFromAddrPort(netip.AddrPortFrom(d.Addr(), d.Port))
}

func (d Destination) String() string {
	return netip.AddrPortFrom(d.Addr(), d.Port).String()
}

// Hex renders the broadcast address as upper-case hex without leading zeros,
// so 10.0.0.255 is "A0000FF".
func (d Destination) Hex() string {
	return fmt.Sprintf("%X", d.Broadcast)
}

// ParseBroadcast parses a dotted IPv4 address.
func ParseBroadcast(s string) (uint32, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse broadcast address '%s'", s)
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, errors.Errorf("broadcast address '%s' is not an IPv4 address", s)
	}
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:]), nil
}

// ParsePort parses a UDP port number. As with C's strtol in base 0, a "0x"
// prefix selects hex and a leading "0" selects octal. Go-only literal forms
// (digit separators, "0b" and "0o" prefixes) are rejected.
func ParsePort(s string) (uint16, error) {
	if strings.ContainsRune(s, '_') || hasPrefixFold(s, "0b") || hasPrefixFold(s, "0o") {
		return 0, errors.Errorf("failed to parse port '%s'", s)
	}
	p, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse port '%s'", s)
	}
	return uint16(p), nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
