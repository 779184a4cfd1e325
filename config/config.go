package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jet/bwtest/client"
	"github.com/jet/bwtest/log"
	"github.com/jet/bwtest/meter"
	"github.com/jet/bwtest/server"
	"github.com/jet/bwtest/sockopt"
	"github.com/jet/bwtest/transfer"
)

const DefaultLogMaxSizeMB = 10
const DefaultLogMaxFiles = 5
const DefaultMetricsEndpoint = "/metrics"

const (
	EnvServerAddr      = "BWTEST_SERVER_ADDR"
	EnvListenAddr      = "BWTEST_LISTEN_ADDR"
	EnvBufferSize      = "BWTEST_BUFFER_SIZE"
	EnvTestDuration    = "BWTEST_TEST_DURATION"
	EnvInterval        = "BWTEST_INTERVAL"
	EnvSendBuffer      = "BWTEST_SEND_BUFFER"
	EnvRecvBuffer      = "BWTEST_RECV_BUFFER"
	EnvLogDir          = "BWTEST_LOG_DIR"
	EnvLogName         = "BWTEST_LOG_NAME"
	EnvLogMaxSizeMB    = "BWTEST_LOG_MAX_SIZE"
	EnvLogMaxFiles     = "BWTEST_LOG_MAX_FILES"
	EnvLogConsole      = "BWTEST_LOG_CONSOLE"
	EnvMetricsAddr     = "BWTEST_METRICS_ADDR"
	EnvMetricsEndpoint = "BWTEST_METRICS_ENDPOINT"
)

func LogConfigFromEnvironment(role string) (log.LogConfig, error) {
	cfg := log.LogConfig{
		LogDir:  os.Getenv(EnvLogDir),
		LogName: os.Getenv(EnvLogName),
		Role:    role,
	}
	size, err := envToInt(DefaultLogMaxSizeMB, EnvLogMaxSizeMB)
	if err != nil {
		return cfg, err
	}
	files, err := envToInt(DefaultLogMaxFiles, EnvLogMaxFiles)
	if err != nil {
		return cfg, err
	}
	cfg.MaxSizeMB = int(size)
	cfg.MaxLogFiles = int(files)
	if envToBool(EnvLogConsole, false) {
		cfg.Echo = os.Stderr
	}
	return cfg, nil
}

func MetricsAddress() string {
	return envStr("", EnvMetricsAddr)
}

func MetricsEndpoint() string {
	return envStr(DefaultMetricsEndpoint, EnvMetricsEndpoint)
}

func transferFromEnvironment(role string, bufferSize int64, duration time.Duration) (transfer.Config, error) {
	var cfg transfer.Config
	size, err := envToInt(bufferSize, EnvBufferSize)
	if err != nil {
		return cfg, err
	}
	testDuration, err := envToDuration(duration, EnvTestDuration)
	if err != nil {
		return cfg, err
	}
	interval, err := envToDuration(meter.DefaultInterval, EnvInterval)
	if err != nil {
		return cfg, err
	}
	cfg = transfer.Config{
		BufferSize: int(size),
		FillByte:   transfer.DefaultFillByte,
		Meter: meter.Config{
			Role:           role,
			IntervalLength: interval,
			TestDuration:   testDuration,
		},
	}
	return cfg, cfg.Validate()
}

func ClientFromEnvironment() (client.Config, error) {
	cfg := client.Config{
		Addr:        envStr(client.DefaultServerAddress, EnvServerAddr),
		DialTimeout: client.DefaultDialTimeout,
	}
	tcfg, err := transferFromEnvironment(client.Role, client.DefaultBufferSize, client.DefaultTestDuration)
	if err != nil {
		return cfg, err
	}
	cfg.Transfer = tcfg
	snd, err := envToInt(0, EnvSendBuffer)
	if err != nil {
		return cfg, err
	}
	cfg.Hints = sockopt.Hints{SendBuffer: int(snd)}
	return cfg, nil
}

// ServerFromEnvironment returns the session configuration and the listen address.
func ServerFromEnvironment() (server.Config, string, error) {
	var cfg server.Config
	addr := envStr(server.DefaultListenAddress, EnvListenAddr)
	tcfg, err := transferFromEnvironment(server.Role, server.DefaultBufferSize, server.DefaultTestDuration)
	if err != nil {
		return cfg, addr, err
	}
	cfg.Transfer = tcfg
	rcv, err := envToInt(0, EnvRecvBuffer)
	if err != nil {
		return cfg, addr, err
	}
	cfg.Hints = sockopt.Hints{RecvBuffer: int(rcv)}
	return cfg, addr, nil
}

func envToBool(env string, def bool) bool {
	if env := os.Getenv(env); env != "" {
		switch strings.ToLower(strings.TrimSpace(env)) {
		case "y", "yes", "true", "1":
			return true
		case "n", "no", "false", "0":
			return false
		}
	}
	return def
}

func envStr(def string, envs ...string) string {
	for _, e := range envs {
		if env := os.Getenv(e); env != "" {
			return env
		}
	}
	return def
}

func envToInt(def int64, envs ...string) (int64, error) {
	for _, e := range envs {
		if env := os.Getenv(e); env != "" {
			i, err := strconv.ParseInt(env, 10, 64)
			if err != nil {
				return 0, errors.Errorf("error parsing environment %s=%s as integer: %v", e, env, err)
			}
			return i, nil
		}
	}
	return def, nil
}

// envToDuration accepts Go durations ("2s", "500ms") or a bare number of seconds.
func envToDuration(def time.Duration, envs ...string) (time.Duration, error) {
	for _, e := range envs {
		if env := os.Getenv(e); env != "" {
			if secs, err := strconv.ParseFloat(env, 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}
			d, err := time.ParseDuration(env)
			if err != nil {
				return 0, errors.Errorf("error parsing environment %s=%s as duration: %v", e, env, err)
			}
			return d, nil
		}
	}
	return def, nil
}
