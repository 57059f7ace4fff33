// Package logger wraps logrus with the handful of knobs simorg needs:
// level, format, and output target. Every component that drives the pure
// kernel (session, httpapi, cmd) logs through this wrapper rather than
// touching logrus directly.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger so call sites depend on this package, not
// logrus, letting the backend change without touching callers. component,
// when set, is merged into every entry built through WithField/WithFields so
// log lines from session/httpapi/cmd are distinguishable without each call
// site repeating it. Direct calls on the embedded logrus.Logger (Info,
// Warn, ...) do not carry it.
type Logger struct {
	*logrus.Logger
	component string
}

// Config controls level, format, and output target.
type Config struct {
	Level      string
	Format     string
	Output     string
	FilePrefix string
}

// New builds a Logger from Config.
func New(cfg Config) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch strings.ToLower(cfg.Output) {
	case "file":
		if cfg.FilePrefix == "" {
			cfg.FilePrefix = "simorg"
		}
		logDir := "logs"
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Errorf("failed to create logs directory: %v", err)
			break
		}
		logPath := filepath.Join(logDir, cfg.FilePrefix+".log")
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Errorf("failed to open log file: %v", err)
			break
		}
		log.SetOutput(io.MultiWriter(os.Stdout, file))
	default:
		log.SetOutput(os.Stdout)
	}

	return &Logger{Logger: log}
}

// NewDefault builds a Logger at info level, text format, stdout, tagged
// with component so every entry built through WithField/WithFields carries
// a "component" field.
func NewDefault(component string) *Logger {
	l := New(Config{Level: "info", Format: "text", Output: "stdout"})
	l.component = component
	return l
}

// WithField returns a log entry carrying key plus the logger's component,
// if any.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.WithFields(logrus.Fields{key: value})
}

// WithFields returns a log entry carrying fields plus the logger's
// component, if any.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	if l.component == "" {
		return l.Logger.WithFields(fields)
	}
	tagged := make(logrus.Fields, len(fields)+1)
	for k, v := range fields {
		tagged[k] = v
	}
	tagged["component"] = l.component
	return l.Logger.WithFields(tagged)
}
