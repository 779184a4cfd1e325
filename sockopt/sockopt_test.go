package sockopt

import (
	"net"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func dialLoopback(t *testing.T) (net.Conn, net.Conn) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()
	client, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	server, ok := <-accepted
	require.True(t, ok, "accept failed")
	return client, server
}

func TestApplyAndEffective(t *testing.T) {
	client, server := dialLoopback(t)
	defer client.Close()
	defer server.Close()

	require.NoError(t, Apply(client, Hints{SendBuffer: 256 * 1024}))
	require.NoError(t, Apply(server, Hints{RecvBuffer: 256 * 1024}))

	b, err := Effective(client)
	if runtime.GOOS == "windows" {
		require.ErrorIs(t, err, ErrUnsupported)
		return
	}
	require.NoError(t, err)
	require.Greater(t, b.SendBuffer, 0)
	require.Greater(t, b.RecvBuffer, 0)
}

func TestPipeIsUntouched(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	require.NoError(t, Apply(a, Hints{SendBuffer: 1024, RecvBuffer: 1024}))
	_, err := Effective(a)
	require.ErrorIs(t, err, ErrUnsupported)
}
