package wol

import (
	"context"
	"net"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
	"gopkg.in/tomb.v2"
)

// Receipt describes a magic packet picked up by a Receiver.
type Receipt struct {
	HardwareAddr HardwareAddr
	From         net.Addr
	// Port is the local port the packet arrived on.
	Port int
	// IfIndex is the receiving interface, or 0 when the platform does not
	// report it.
	IfIndex int
}

// Receiver listens for magic packets on one or more UDP ports.
type Receiver struct {
	t       *tomb.Tomb
	conns   []*net.UDPConn
	iface   *net.Interface
	expect  HardwareAddr
	results chan Receipt
}

// Listen starts listening on every port in ports, DefaultPort if none are
// given. A port of 0 picks a free port; see Addrs. If ifaceName is not empty
// only packets arriving on that interface count, and they must carry its
// hardware address.
func Listen(ctx context.Context, ifaceName string, ports ...int) (*Receiver, error) {
	r := &Receiver{}
	if ifaceName != "" {
		iface, err := net.InterfaceByName(ifaceName)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to find interface '%s'", ifaceName)
		}
		if len(iface.HardwareAddr) != HardwareAddrLen {
			return nil, errors.Errorf("unknown hardware address format for interface '%s'", ifaceName)
		}
		r.iface = iface
		copy(r.expect[:], iface.HardwareAddr)
	}
	if len(ports) == 0 {
		ports = []int{DefaultPort}
	}
	r.results = make(chan Receipt, len(ports))

	var lc net.ListenConfig
	for _, port := range ports {
		pc, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort("", strconv.Itoa(port)))
		if err != nil {
			r.closeConns()
			return nil, errors.Wrapf(err, "failed to listen on UDP port %d", port)
		}
		r.conns = append(r.conns, pc.(*net.UDPConn))
	}

	r.t, _ = tomb.WithContext(ctx)
	for _, conn := range r.conns {
		r.t.Go(func() error {
			return r.read(conn)
		})
	}
	r.t.Go(func() error {
		<-r.t.Dying()
		r.closeConns()
		return nil
	})
	return r, nil
}

// Wait blocks until a magic packet arrives on one of ports, or ctx is done.
func Wait(ctx context.Context, ifaceName string, ports ...int) (Receipt, error) {
	r, err := Listen(ctx, ifaceName, ports...)
	if err != nil {
		return Receipt{}, err
	}
	defer r.Close()
	return r.Receive()
}

// Addrs returns the local addresses being listened on.
func (r *Receiver) Addrs() []net.Addr {
	addrs := make([]net.Addr, len(r.conns))
	for i, conn := range r.conns {
		addrs[i] = conn.LocalAddr()
	}
	return addrs
}

// Receive returns the next magic packet. It fails once the receiver is
// closed, its context is done, or a listener fails.
func (r *Receiver) Receive() (Receipt, error) {
	select {
	case rc := <-r.results:
		return rc, nil
	case <-r.t.Dying():
	}
	select {
	case rc := <-r.results:
		return rc, nil
	default:
	}
	if err := r.t.Err(); err != nil && err != tomb.ErrStillAlive {
		return Receipt{}, errors.Wrapf(err, "failed to wait for packet")
	}
	return Receipt{}, errors.New("receiver closed")
}

// Close stops listening and releases every socket.
func (r *Receiver) Close() error {
	r.t.Kill(nil)
	err := r.t.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (r *Receiver) closeConns() {
	for _, conn := range r.conns {
		conn.Close()
	}
}

func (r *Receiver) read(conn *net.UDPConn) error {
	l := log.WithField("local", conn.LocalAddr())
	port := conn.LocalAddr().(*net.UDPAddr).Port
	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetControlMessage(ipv4.FlagInterface, true); err != nil {
		l.WithError(err).Debug("Interface control messages unavailable")
	}
	buf := make([]byte, 1500)
	for {
		n, cm, src, err := pc.ReadFrom(buf)
		if err != nil {
			select {
			case <-r.t.Dying():
				return nil
			default:
			}
			return errors.Wrapf(err, "failed to read UDP message")
		}
		ifIndex := 0
		if cm != nil {
			ifIndex = cm.IfIndex
		}
		if r.iface != nil && ifIndex != 0 && ifIndex != r.iface.Index {
			continue
		}
		hw, ok := ParseMagicPacket(buf[:n])
		if !ok {
			l.WithField("from", src).Debug("Ignoring non-magic datagram")
			continue
		}
		if r.iface != nil && hw != r.expect {
			return errors.Errorf("received packet with wrong hardware address %s, expected %s", hw, r.expect)
		}
		select {
		case r.results <- Receipt{HardwareAddr: hw, From: src, Port: port, IfIndex: ifIndex}:
		case <-r.t.Dying():
			return nil
		}
	}
}
