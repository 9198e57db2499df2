package wol

import (
	"net"
)

// HardwareAddrLen is the length of an ethernet hardware address.
const HardwareAddrLen = 6

// HardwareAddr is an ethernet (MAC-48) hardware address, in the order it is
// written and sent on the wire.
type HardwareAddr [HardwareAddrLen]byte

// ParseHardwareAddr parses colon separated ("aa:bb:cc:dd:ee:ff") or
// concatenated ("aabbccddeeff") hexadecimal octets. The text is consumed two
// characters at a time, and a single ':' may follow each octet.
func ParseHardwareAddr(s string) (HardwareAddr, error) {
	var (
		hw HardwareAddr
		n  int
	)
	for i := 0; i < len(s); {
		end := i + 2
		if end > len(s) {
			end = len(s)
		}
		chunk := s[i:end]
		b, ok := parseOctet(chunk)
		if !ok {
			return HardwareAddr{}, &Error{Kind: InvalidHexDigit, Input: chunk}
		}
		if n < HardwareAddrLen {
			hw[n] = b
		}
		n++
		i = end
		if i < len(s) && s[i] == ':' {
			i++
		}
	}
	if n != HardwareAddrLen {
		return HardwareAddr{}, &Error{Kind: InvalidAddressLength, Input: s}
	}
	return hw, nil
}

func parseOctet(s string) (byte, bool) {
	var b byte
	for i := 0; i < len(s); i++ {
		v, ok := hexValue(s[i])
		if !ok {
			return 0, false
		}
		b = b<<4 | v
	}
	return b, true
}

func hexValue(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// HardwareAddr returns hw as a net.HardwareAddr.
func (hw HardwareAddr) HardwareAddr() net.HardwareAddr {
	return net.HardwareAddr(hw[:])
}

func (hw HardwareAddr) String() string {
	return hw.HardwareAddr().String()
}
