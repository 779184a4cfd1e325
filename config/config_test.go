package config

import (
	"os"
	"testing"
	"time"

	"github.com/jet/bwtest/client"
	"github.com/jet/bwtest/server"
)

func TestClientDefaults(t *testing.T) {
	cfg, err := ClientFromEnvironment()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != client.DefaultServerAddress {
		t.Errorf("addr: expected %s but got %s", client.DefaultServerAddress, cfg.Addr)
	}
	if cfg.Transfer.BufferSize != 64*1024 {
		t.Errorf("buffer: expected 65536 but got %d", cfg.Transfer.BufferSize)
	}
	if cfg.Transfer.Meter.TestDuration != 32*time.Second {
		t.Errorf("duration: expected 32s but got %v", cfg.Transfer.Meter.TestDuration)
	}
	if cfg.Transfer.Meter.IntervalLength != 2*time.Second {
		t.Errorf("interval: expected 2s but got %v", cfg.Transfer.Meter.IntervalLength)
	}
	if cfg.Transfer.Meter.Role != client.Role || cfg.Hints.SendBuffer != 0 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestServerDefaults(t *testing.T) {
	cfg, addr, err := ServerFromEnvironment()
	if err != nil {
		t.Fatal(err)
	}
	if addr != ":5555" {
		t.Errorf("addr: expected :5555 but got %s", addr)
	}
	if cfg.Transfer.BufferSize != 128*1024 {
		t.Errorf("buffer: expected 131072 but got %d", cfg.Transfer.BufferSize)
	}
	if cfg.Transfer.Meter.TestDuration != 34*time.Second {
		t.Errorf("duration: expected 34s but got %v", cfg.Transfer.Meter.TestDuration)
	}
	if cfg.Transfer.Meter.Role != server.Role {
		t.Errorf("role: expected %s but got %s", server.Role, cfg.Transfer.Meter.Role)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvServerAddr, "192.168.1.5:5555")
	t.Setenv(EnvBufferSize, "1024")
	t.Setenv(EnvTestDuration, "30")
	t.Setenv(EnvInterval, "500ms")
	t.Setenv(EnvSendBuffer, "262144")

	cfg, err := ClientFromEnvironment()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "192.168.1.5:5555" || cfg.Transfer.BufferSize != 1024 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Transfer.Meter.TestDuration != 30*time.Second || cfg.Transfer.Meter.IntervalLength != 500*time.Millisecond {
		t.Errorf("unexpected durations %+v", cfg.Transfer.Meter)
	}
	if cfg.Hints.SendBuffer != 262144 {
		t.Errorf("send buffer hint: expected 262144 but got %d", cfg.Hints.SendBuffer)
	}
}

func TestInvalidEnvironment(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{env: EnvBufferSize, value: "lots"},
		{env: EnvBufferSize, value: "0"},
		{env: EnvTestDuration, value: "forever"},
		{env: EnvInterval, value: "-1s"},
		{env: EnvRecvBuffer, value: "1k"},
	}
	for _, test := range tests {
		t.Run(test.env+"="+test.value, func(t *testing.T) {
			t.Setenv(test.env, test.value)
			if _, _, err := ServerFromEnvironment(); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestLogConfigFromEnvironment(t *testing.T) {
	t.Setenv(EnvLogDir, "/var/log/bwtest")
	t.Setenv(EnvLogMaxSizeMB, "20")
	t.Setenv(EnvLogConsole, "yes")

	cfg, err := LogConfigFromEnvironment(server.Role)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogDir != "/var/log/bwtest" || cfg.Role != server.Role {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.MaxSizeMB != 20 {
		t.Errorf("max size: expected 20 but got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxLogFiles != DefaultLogMaxFiles {
		t.Errorf("max files: expected the default %d but got %d", DefaultLogMaxFiles, cfg.MaxLogFiles)
	}
	if cfg.Echo != os.Stderr {
		t.Errorf("console echo should write to stderr")
	}
}

func TestInvalidLogEnvironment(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{env: EnvLogMaxSizeMB, value: "ten"},
		{env: EnvLogMaxFiles, value: "not-a-number"},
	}
	for _, test := range tests {
		t.Run(test.env, func(t *testing.T) {
			t.Setenv(test.env, test.value)
			if _, err := LogConfigFromEnvironment(client.Role); err == nil {
				t.Errorf("expected an error for %s=%s", test.env, test.value)
			}
		})
	}
}

func TestMetricsEnvironment(t *testing.T) {
	if MetricsAddress() != "" || MetricsEndpoint() != DefaultMetricsEndpoint {
		t.Fatalf("unexpected metrics defaults")
	}
	t.Setenv(EnvMetricsAddr, "127.0.0.1:9100")
	t.Setenv(EnvMetricsEndpoint, "/stats")
	if MetricsAddress() != "127.0.0.1:9100" || MetricsEndpoint() != "/stats" {
		t.Errorf("metrics environment ignored")
	}
}
