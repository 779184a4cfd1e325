package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const DefaultLogName = "bwtest.log"
const DefaultRoleLogSuffix = ".bwtest.log"

type LogConfig struct {
	MaxLogFiles int
	MaxSizeMB   int
	LogDir      string
	LogName     string
	// Role names the process (client or server) and selects the default file name
	Role string
	// Echo additionally writes every log event to this writer
	Echo io.Writer
}

func (c LogConfig) Dir() (string, error) {
	if c.LogDir != "" {
		return c.LogDir, nil
	}
	return os.Getwd()
}

func (c LogConfig) Name() string {
	if c.LogName != "" {
		return c.LogName
	}
	if c.Role != "" {
		return fmt.Sprintf("%s%s", strings.ToLower(c.Role), DefaultRoleLogSuffix)
	}
	return DefaultLogName
}

func (c LogConfig) Path() (string, error) {
	dir, err := c.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Name()), nil
}

type Logger struct {
	zl zerolog.Logger
}

func (l Logger) WithFields(fs map[string]interface{}) Logger {
	return Logger{
		zl: l.zl.With().Fields(fs).Logger(),
	}
}

func (l Logger) Logln(v ...interface{}) {
	l.zl.Info().Msg(fmt.Sprint(v...))
}

func (l Logger) Logf(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

// Event logs msg at info level with the given fields attached to this entry only.
func (l Logger) Event(msg string, fs map[string]interface{}) {
	l.zl.Info().Fields(fs).Msg(msg)
}

func (l Logger) Error(err error, msg string) {
	if err == nil {
		return
	}
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	if v, ok := err.(stackTracer); ok {
		var stacktrace []string
		for _, frame := range v.StackTrace() {
			stacktrace = append(stacktrace, fmt.Sprintf("%+v", frame))
		}
		logger := l.zl.With().Fields(map[string]interface{}{
			"stacktrace": stacktrace,
		}).Logger()
		logger.Error().Err(err).Msg(msg)
	} else {
		l.zl.Error().Err(err).Msg(msg)
	}
}

func NewLogger(cfg LogConfig) (Logger, error) {
	filename, err := cfg.Path()
	if err != nil {
		return Logger{}, errors.Wrapf(err, "unable to get log directory")
	}
	var logOut io.Writer = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxLogFiles,
	}
	if cfg.Echo != nil {
		logOut = zerolog.MultiLevelWriter(logOut, cfg.Echo)
	}
	return NewWriterLogger(logOut), nil
}

// NewWriterLogger logs JSON lines to w without rotation.
func NewWriterLogger(w io.Writer) Logger {
	return Logger{
		zl: zerolog.New(w).With().Timestamp().Logger(),
	}
}

func Nop() Logger {
	return Logger{zl: zerolog.Nop()}
}
