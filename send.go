package wol

import (
	"context"
	"io"
	"net"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("subsys", "wol")

// Sender sends magic packets. The zero value is ready to use.
type Sender struct {
	// Open returns the socket used for a single send. It defaults to an
	// unbound udp4 socket.
	Open func(ctx context.Context) (net.PacketConn, error)

	// Log defaults to the package logger.
	Log logrus.FieldLogger
}

var defaultSender Sender

// Wake parses hwStr and sends its magic packet to dst.
func Wake(ctx context.Context, hwStr string, dst Destination) error {
	return defaultSender.Wake(ctx, hwStr, dst)
}

// Send sends the magic packet for hw to dst.
func Send(ctx context.Context, hw HardwareAddr, dst Destination) error {
	return defaultSender.Send(ctx, hw, dst)
}

// Wake parses hwStr and sends its magic packet to dst. Nothing is opened
// when hwStr does not parse.
func (s *Sender) Wake(ctx context.Context, hwStr string, dst Destination) error {
	hw, err := ParseHardwareAddr(hwStr)
	if err != nil {
		return err
	}
	return s.Send(ctx, hw, dst)
}

// Send writes exactly one datagram holding the magic packet for hw to dst.
// It does not retry and does not wait for any reply.
func (s *Sender) Send(ctx context.Context, hw HardwareAddr, dst Destination) error {
	l := s.logger().WithFields(logrus.Fields{
		"hwaddr": hw,
		"dst":    dst,
	})

	conn, err := s.open(ctx)
	if err != nil {
		return &Error{Kind: SocketCreationFailed, Input: dst.String(), Err: err}
	}
	defer conn.Close()
	l.WithField("local", conn.LocalAddr()).Debug("Opened socket")

	if err := enableBroadcast(conn); err != nil {
		return &Error{Kind: BroadcastConfigFailed, Input: dst.String(), Err: err}
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return &Error{Kind: TransmitFailed, Input: dst.String(), Err: err}
		}
	}

	packet := NewMagicPacket(hw)
	n, err := conn.WriteTo(packet[:], dst.UDPAddr())
	if err != nil {
		return &Error{Kind: TransmitFailed, Input: dst.String(), Err: err}
	}
	if n != len(packet) {
		return &Error{Kind: TransmitFailed, Input: dst.String(), Err: errors.Wrapf(io.ErrShortWrite, "wrote %d of %d bytes", n, len(packet))}
	}
	l.WithField("bytes", n).Debug("Sent magic packet")
	return nil
}

func (s *Sender) open(ctx context.Context) (net.PacketConn, error) {
	if s.Open != nil {
		return s.Open(ctx)
	}
	var lc net.ListenConfig
	return lc.ListenPacket(ctx, "udp4", ":0")
}

func (s *Sender) logger() logrus.FieldLogger {
	if s.Log != nil {
		return s.Log
	}
	return log
}

// broadcaster is implemented by sockets that manage SO_BROADCAST themselves.
type broadcaster interface {
	SetBroadcast(on bool) error
}

func enableBroadcast(conn net.PacketConn) error {
	if b, ok := conn.(broadcaster); ok {
		return b.SetBroadcast(true)
	}
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return errors.Errorf("%T does not expose its file descriptor", conn)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return errors.Wrap(err, "failed to get raw connection")
	}
	var serr error
	if err := rc.Control(func(fd uintptr) {
		serr = setBroadcast(fd)
	}); err != nil {
		return errors.Wrap(err, "failed to control socket")
	}
	return errors.Wrap(serr, "setsockopt SO_BROADCAST")
}
