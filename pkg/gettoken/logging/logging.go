// Package logging builds the zap logger used for gettoken diagnostics.
// Diagnostics go to stderr so that stdout carries only command output.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	level   string
	verbose bool
	writer  io.Writer
}

type Option func(o *options)

func WithLevel(lv string) Option {
	return func(o *options) {
		o.level = lv
	}
}

// WithVerbose forces debug level regardless of WithLevel.
func WithVerbose(v bool) Option {
	return func(o *options) {
		o.verbose = v
	}
}

func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

func New(opts ...Option) (*zap.SugaredLogger, error) {
	o := options{level: "warn", writer: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	if o.verbose {
		o.level = "debug"
	}

	var al zap.AtomicLevel
	if err := al.UnmarshalText([]byte(o.level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", o.level, err)
	}

	encConfig := zap.NewDevelopmentEncoderConfig()
	encConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encConfig), zapcore.AddSync(o.writer), al)

	return zap.New(core).Sugar(), nil
}

// WithCorrelationID tags every entry of one CLI invocation with the same id.
func WithCorrelationID(log *zap.SugaredLogger) (*zap.SugaredLogger, string) {
	cid := uuid.New().String()
	return log.With("cid", cid), cid
}
