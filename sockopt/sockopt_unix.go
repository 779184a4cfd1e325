//go:build linux || darwin || freebsd || openbsd || netbsd

package sockopt

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func readBuffers(fd uintptr) (Buffers, error) {
	snd, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF)
	if err != nil {
		return Buffers{}, errors.Wrap(err, "getsockopt SO_SNDBUF")
	}
	rcv, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF)
	if err != nil {
		return Buffers{}, errors.Wrap(err, "getsockopt SO_RCVBUF")
	}
	return Buffers{SendBuffer: snd, RecvBuffer: rcv}, nil
}
