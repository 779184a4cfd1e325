package sockopt

import (
	"net"

	"github.com/pkg/errors"
)

// Hints are requested kernel socket buffer sizes in bytes. Zero keeps the OS default.
type Hints struct {
	SendBuffer int
	RecvBuffer int
}

// Buffers are the sizes the kernel actually granted.
type Buffers struct {
	SendBuffer int
	RecvBuffer int
}

type bufferSetter interface {
	SetWriteBuffer(bytes int) error
	SetReadBuffer(bytes int) error
}

// Apply sets the hinted buffer sizes on conn. Connections that do not expose
// socket buffers (net.Pipe, wrapped streams) are left untouched.
func Apply(conn net.Conn, h Hints) error {
	s, ok := conn.(bufferSetter)
	if !ok {
		return nil
	}
	if h.SendBuffer > 0 {
		if err := s.SetWriteBuffer(h.SendBuffer); err != nil {
			return errors.Wrapf(err, "unable to set send buffer to %d bytes", h.SendBuffer)
		}
	}
	if h.RecvBuffer > 0 {
		if err := s.SetReadBuffer(h.RecvBuffer); err != nil {
			return errors.Wrapf(err, "unable to set receive buffer to %d bytes", h.RecvBuffer)
		}
	}
	return nil
}

var ErrUnsupported = errors.New("socket buffer inspection is not supported for this connection")

// Effective reads back the kernel socket buffer sizes of conn.
func Effective(conn net.Conn) (Buffers, error) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return Buffers{}, ErrUnsupported
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return Buffers{}, errors.Wrap(err, "unable to get raw connection")
	}
	var b Buffers
	var serr error
	err = raw.Control(func(fd uintptr) {
		b, serr = readBuffers(fd)
	})
	if err != nil {
		return Buffers{}, errors.Wrap(err, "raw connection control failed")
	}
	return b, serr
}
