package wol

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the failures reported by this package.
type Kind int

const (
	InvalidHexDigit Kind = iota + 1
	InvalidAddressLength
	SocketCreationFailed
	BroadcastConfigFailed
	TransmitFailed
)

func (k Kind) String() string {
	switch k {
	case InvalidHexDigit:
		return "invalid hex digit"
	case InvalidAddressLength:
		return "invalid address length"
	case SocketCreationFailed:
		return "socket creation failed"
	case BroadcastConfigFailed:
		return "broadcast config failed"
	case TransmitFailed:
		return "transmit failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by ParseHardwareAddr, Send and Wake.
// Input holds the offending text for input errors, or the destination for
// socket errors. Err is the underlying cause, if any.
type Error struct {
	Kind  Kind
	Input string
	Err   error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case InvalidHexDigit:
		msg = fmt.Sprintf("failed to parse hexadecimal '%s'", e.Input)
	case InvalidAddressLength:
		msg = fmt.Sprintf("'%s' not a valid ether address", e.Input)
	case SocketCreationFailed:
		msg = "failed to open socket"
	case BroadcastConfigFailed:
		msg = "failed to set socket options"
	case TransmitFailed:
		msg = fmt.Sprintf("failed to send packet to '%s'", e.Input)
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether any error in err's chain is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
