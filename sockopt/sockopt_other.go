//go:build !(linux || darwin || freebsd || openbsd || netbsd)

package sockopt

func readBuffers(fd uintptr) (Buffers, error) {
	return Buffers{}, ErrUnsupported
}
