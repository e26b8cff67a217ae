package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level   string
	Console bool
	NoColor bool
	Out     io.Writer
}

type Logger struct {
	logger *zerolog.Logger
}

// New creates the root logger and sets the global level.
func New(opts Options) (*Logger, error) {
	if err := SetLevel(opts.Level); err != nil {
		return nil, err
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	if !opts.Console {
		l := zerolog.New(out).With().Timestamp().Logger()
		return &Logger{logger: &l}, nil
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.0000", NoColor: opts.NoColor,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			"s",
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{"s"},
	}
	l := zerolog.New(output).With().Str("s", "main").Timestamp().Logger()
	return &Logger{logger: &l}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	l := zerolog.Nop()
	return &Logger{logger: &l}
}

// SetLevel changes the global level. Empty means info.
func SetLevel(level string) error {
	if level == "" {
		level = zerolog.LevelInfoValue
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// Tag creates a child logger for a component.
func (l *Logger) Tag(tag string) *Logger {
	c := l.logger.With().Str("s", tag).Logger()
	return &Logger{logger: &c}
}

// Debug starts a new message with debug level.
// You must call Msg on the returned event in order to send the event.
func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }

// Info starts a new message with info level.
// You must call Msg on the returned event in order to send the event.
func (l *Logger) Info() *zerolog.Event { return l.logger.Info() }

// Warn starts a new message with warn level.
// You must call Msg on the returned event in order to send the event.
func (l *Logger) Warn() *zerolog.Event { return l.logger.Warn() }

// Error starts a new message with error level.
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

// Fatal starts a new message with fatal level. The os.Exit(1) function
// is called by the Msg method.
func (l *Logger) Fatal() *zerolog.Event { return l.logger.Fatal() }
