// Package log is a leveled logger for the command line tools.
package log

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level is a logging verbosity.
type Level int

const (
	LogPrefix     = "[hyperfifo] "
	ErrorPrefix   = "[error] "
	WarningPrefix = "[warn] "
	InfoPrefix    = "[info] "
	DebugPrefix   = "[debug] "
	HelpLevels    = "Must be one of: error, warning, info, debug."
)

const (
	ErrorLevel Level = iota
	WarningLevel
	InfoLevel
	DebugLevel
)

var levelNames = map[string]Level{
	"error":   ErrorLevel,
	"warning": WarningLevel,
	"warn":    WarningLevel,
	"info":    InfoLevel,
	"debug":   DebugLevel,
}

// ErrLevel is returned for an unknown level name.
var ErrLevel = errors.New("wrong log level. " + HelpLevels)

type Logger struct {
	level Level
	*log.Logger
}

var logger = &Logger{
	level:  InfoLevel,
	Logger: log.New(os.Stderr, LogPrefix, log.LstdFlags),
}

// ParseLevel converts a level name.
func ParseLevel(strLevel string) (Level, error) {
	level, ok := levelNames[strings.ToLower(strLevel)]
	if !ok {
		return InfoLevel, fmt.Errorf("%w got %q", ErrLevel, strLevel)
	}

	return level, nil
}

func SetLevel(strLevel string) error {
	level, err := ParseLevel(strLevel)
	if err != nil {
		return err
	}

	logger.level = level

	return nil
}

// CurrentLevel returns the active level.
func CurrentLevel() Level {
	return logger.level
}

func Init(out io.Writer, strLevel string) error {
	logger.SetOutput(out)
	return SetLevel(strLevel)
}

// Enabled reports whether messages at level are printed.
func Enabled(level Level) bool {
	return logger.level >= level
}

func Error(format string, v ...interface{}) {
	if logger.level >= ErrorLevel {
		logger.Println(fmt.Sprintf(ErrorPrefix+format, v...))
	}
}

func Warning(format string, v ...interface{}) {
	if logger.level >= WarningLevel {
		logger.Println(fmt.Sprintf(WarningPrefix+format, v...))
	}
}

func Info(format string, v ...interface{}) {
	if logger.level >= InfoLevel {
		logger.Println(fmt.Sprintf(InfoPrefix+format, v...))
	}
}

func Debug(format string, v ...interface{}) {
	if logger.level >= DebugLevel {
		logger.Println(fmt.Sprintf(DebugPrefix+format, v...))
	}
}

// Writer returns an io.Writer printing each write as an info message. It
// lets libraries that log to a writer share the prefix and level.
func Writer() io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		Info("%s", strings.TrimRight(string(p), "\n"))
		return len(p), nil
	})
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) {
	return f(p)
}
