package models

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = []string{"DEBUG", " INFO", " WARN", "ERROR"}
var levelColors = []string{
	ansi.ColorCode("black+h"),
	ansi.ColorCode("default"),
	ansi.ColorCode("yellow"),
	ansi.ColorCode("red+b"),
}

// Logger writes firmware-console style lines: "[ INFO]: message".
type Logger struct {
	w       io.Writer
	color   bool
	verbose bool
}

func NewLogger(w io.Writer, color, verbose bool) *Logger {
	return &Logger{w: w, color: color, verbose: verbose}
}

// NewConfigLogger logs to c.Output, or a color-capable stderr when unset.
func NewConfigLogger(c *Config) *Logger {
	w := c.Output
	color := c.Color
	if w == nil {
		w = colorable.NewColorableStderr()
		fd := os.Stderr.Fd()
		color = color || isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return NewLogger(w, color, c.Verbose)
}

func (l *Logger) log(lvl Level, format string, a ...interface{}) {
	if l == nil || l.w == nil {
		return
	}
	tag := "[" + levelTags[lvl] + "]"
	if l.color {
		tag = levelColors[lvl] + tag + ansi.Reset
	}
	fmt.Fprintf(l.w, "%s: %s\n", tag, fmt.Sprintf(format, a...))
}

func (l *Logger) Debug(format string, a ...interface{}) {
	if l != nil && l.verbose {
		l.log(LevelDebug, format, a...)
	}
}

func (l *Logger) Info(format string, a ...interface{})  { l.log(LevelInfo, format, a...) }
func (l *Logger) Warn(format string, a ...interface{})  { l.log(LevelWarn, format, a...) }
func (l *Logger) Error(format string, a ...interface{}) { l.log(LevelError, format, a...) }

func (l *Logger) Verbose() bool {
	return l != nil && l.verbose
}

// Writer is where raw dumps should go.
func (l *Logger) Writer() io.Writer {
	if l == nil || l.w == nil {
		return io.Discard
	}
	return l.w
}
