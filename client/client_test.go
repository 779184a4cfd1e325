package client

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jet/bwtest/meter"
	"github.com/jet/bwtest/transfer"
)

func shortTransfer() transfer.Config {
	return transfer.Config{
		BufferSize: DefaultBufferSize,
		Meter: meter.Config{
			IntervalLength: 50 * time.Millisecond,
			TestDuration:   200 * time.Millisecond,
		},
	}
}

func TestRunStreamsForDuration(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	drained := make(chan int64, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			drained <- -1
			return
		}
		defer conn.Close()
		n, _ := io.Copy(ioutil.Discard, conn)
		drained <- n
	}()

	var out bytes.Buffer
	sum, err := Run(context.Background(), Config{
		Addr:     listener.Addr().String(),
		Transfer: shortTransfer(),
		Out:      &out,
	})
	require.NoError(t, err)
	require.Equal(t, meter.DurationElapsed, sum.Reason)
	require.Equal(t, Role, sum.Role)
	require.Equal(t, meter.Send, sum.Direction)
	require.True(t, sum.Elapsed >= 200*time.Millisecond, "elapsed %v", sum.Elapsed)

	select {
	case n := <-drained:
		require.Equal(t, int64(sum.TotalBytes), n)
	case <-time.After(5 * time.Second):
		t.Fatal("server side did not see the connection close")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, "Connected to server.", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "[CLIENT]  0– 0s: Sent "), lines[1])
	require.True(t, strings.HasPrefix(lines[len(lines)-1], "[CLIENT] Finished. Total sent: "))
	require.True(t, strings.HasSuffix(lines[len(lines)-1], " Mbps avg)"))
}

func TestRunDialFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	var out bytes.Buffer
	_, err = Run(context.Background(), Config{
		Addr:     addr,
		Transfer: shortTransfer(),
		Out:      &out,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection to "+addr+" failed")
	require.Empty(t, out.String())
}

func TestRunInvalidConfig(t *testing.T) {
	_, err := Run(context.Background(), Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
