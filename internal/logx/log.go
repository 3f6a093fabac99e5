// Package logx provides the operational logging backend, based around the
// go-logging package. Each subsystem pulls a named logger off one shared
// backend, which writes leveled records to a file or stderr.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/op/go-logging.v1"
)

const format = "%{time:15:04:05.000} %{level:.4s} %{module}: %{message}"

// Backend is a configured log backend handing out per-module loggers.
type Backend struct {
	leveled logging.LeveledBackend
	w       io.WriteCloser
}

// New creates a backend writing to file (stderr when file is empty) at the
// given level. Valid levels are ERROR, WARNING, NOTICE, INFO and DEBUG.
func New(file, level string) (*Backend, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var w io.WriteCloser
	if file == "" {
		w = os.Stderr
	} else {
		w, err = os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("logx: open %s: %w", file, err)
		}
	}

	base := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(base, logging.MustStringFormatter(format))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, "")

	return &Backend{leveled: leveled, w: w}, nil
}

// GetLogger returns a named logger bound to this backend.
func (b *Backend) GetLogger(module string) *logging.Logger {
	l := logging.MustGetLogger(module)
	l.SetBackend(b.leveled)
	return l
}

// Close releases the underlying log file, if any.
func (b *Backend) Close() error {
	if b.w == os.Stderr {
		return nil
	}
	return b.w.Close()
}

func parseLevel(level string) (logging.Level, error) {
	switch strings.ToUpper(level) {
	case "", "INFO":
		return logging.INFO, nil
	case "ERROR":
		return logging.ERROR, nil
	case "WARNING":
		return logging.WARNING, nil
	case "NOTICE":
		return logging.NOTICE, nil
	case "DEBUG":
		return logging.DEBUG, nil
	default:
		return logging.INFO, fmt.Errorf("logx: invalid log level %q", level)
	}
}
