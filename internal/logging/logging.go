package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	LogToFile bool
	LogFile   *os.File // Optional, used if LogToFile is true

	entry *logrus.Entry
}

type Fields = logrus.Fields

func NewLogger() *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if lvl, err := logrus.ParseLevel(os.Getenv("POJ_LOG_LEVEL")); err == nil {
		base.SetLevel(lvl)
	} else {
		base.SetLevel(logrus.InfoLevel)
	}

	logFile := os.Getenv("POJ_LOG")
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			panic(err)
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			panic(err)
		}
		base.SetOutput(file)
		base.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
		return &Logger{LogToFile: true, LogFile: file, entry: logrus.NewEntry(base)}
	}

	base.SetOutput(os.Stdout)
	return &Logger{entry: logrus.NewEntry(base)}
}

// NewWithOutput builds a logger writing to w, mostly for tests.
func NewWithOutput(w io.Writer, level logrus.Level) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	return &Logger{entry: logrus.NewEntry(base)}
}

func (l *Logger) SetLevel(level logrus.Level) {
	l.entry.Logger.SetLevel(level)
}

// WithFields returns a child logger sharing the same sink.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{LogToFile: l.LogToFile, LogFile: l.LogFile, entry: l.entry.WithFields(fields)}
}

func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(Fields{key: value})
}

func (l *Logger) Debug(message string) { l.entry.Debug(message) }
func (l *Logger) Info(message string)  { l.entry.Info(message) }
func (l *Logger) Warn(message string)  { l.entry.Warn(message) }
func (l *Logger) Error(message string) { l.entry.Error(message) }

func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

// Fatal logs and exits. Only the cmd layer calls it.
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}

func (l *Logger) Close() error {
	if l.LogFile == nil {
		return nil
	}
	return l.LogFile.Close()
}

var GlobalLogger = NewLogger()
