// Package logging configures zerolog for the treasury tools and adapts it
// to the SDK logger interface.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how logs are written.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // console or json
	FilePath   string // optional rotated log file
	MaxSize    int    // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultOptions returns console logging at info level.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		Format:     "console",
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
}

// New builds a logger writing to out (stderr when nil) and, if FilePath is
// set, to a rotated file. The returned closer releases the file sink.
func New(opts Options, out io.Writer) (zerolog.Logger, io.Closer) {
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	if strings.EqualFold(opts.Format, "json") {
		writers = append(writers, out)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    !isTerminal(out),
		})
	}

	var closer io.Closer = nopCloser{}
	if opts.FilePath != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	output := writers[0]
	if len(writers) > 1 {
		output = io.MultiWriter(writers...)
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ClientLogger adapts a zerolog.Logger to the SDK logger interface.
// Arguments are read as alternating key/value pairs.
type ClientLogger struct {
	logger zerolog.Logger
}

// NewClientLogger wraps logger, tagging every event with component.
func NewClientLogger(logger zerolog.Logger, component string) *ClientLogger {
	if component != "" {
		logger = logger.With().Str("component", component).Logger()
	}
	return &ClientLogger{logger: logger}
}

func (l *ClientLogger) Debug(msg string, args ...interface{}) {
	withFields(l.logger.Debug(), args).Msg(msg)
}

func (l *ClientLogger) Info(msg string, args ...interface{}) {
	withFields(l.logger.Info(), args).Msg(msg)
}

func (l *ClientLogger) Warn(msg string, args ...interface{}) {
	withFields(l.logger.Warn(), args).Msg(msg)
}

func (l *ClientLogger) Error(msg string, args ...interface{}) {
	withFields(l.logger.Error(), args).Msg(msg)
}

func withFields(e *zerolog.Event, args []interface{}) *zerolog.Event {
	if e == nil {
		return e
	}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			e = e.Str("extra", key)
			break
		}
		switch v := args[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		case fmt.Stringer:
			e = e.Stringer(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}
