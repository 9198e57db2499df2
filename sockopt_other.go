//go:build !unix && !windows

package wol

// The runtime already enables broadcast on datagram sockets where it can.
func setBroadcast(fd uintptr) error {
	return nil
}
