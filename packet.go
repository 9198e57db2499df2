package wol

import (
	"bytes"
)

const (
	syncLen = 6
	repeat  = 16

	// MagicPacketLen is the size of a magic packet without password.
	MagicPacketLen = syncLen + repeat*HardwareAddrLen
)

var syncStream = bytes.Repeat([]byte{0xFF}, syncLen)

// MagicPacket is the payload that wakes the interface with address hw:
// six 0xFF bytes followed by hw sixteen times.
type MagicPacket [MagicPacketLen]byte

func NewMagicPacket(hw HardwareAddr) MagicPacket {
	var p MagicPacket
	copy(p[:], syncStream)
	for off := syncLen; off < MagicPacketLen; off += HardwareAddrLen {
		copy(p[off:], hw[:])
	}
	return p
}

// ParseMagicPacket returns the target address of the magic packet at the
// start of b. Trailing bytes, such as a SecureOn password, are ignored.
func ParseMagicPacket(b []byte) (HardwareAddr, bool) {
	if len(b) < MagicPacketLen || !bytes.HasPrefix(b, syncStream) {
		return HardwareAddr{}, false
	}
	var hw HardwareAddr
	copy(hw[:], b[syncLen:])
	for off := syncLen; off < MagicPacketLen; off += HardwareAddrLen {
		if !bytes.Equal(b[off:off+HardwareAddrLen], hw[:]) {
			return HardwareAddr{}, false
		}
	}
	return hw, true
}
