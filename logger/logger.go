// Package logger is a small logrus wrapper used by hostftl for structured,
// leveled logging with a stable caller tag on every line.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// Logger is the package-wide debug/warn logger.
	Logger *logrus.Logger
	// InfoLogger carries informational output.
	InfoLogger *logrus.Logger
	// ErrorLogger carries error/fatal output.
	ErrorLogger *logrus.Logger
)

func init() {
	// usable before InitLogger is called, e.g. from package-level init code
	// or tests that never configure file output.
	_ = InitLogger(Config{Level: "info"})
}

// Config controls where and at what level the three loggers write.
type Config struct {
	ErrorLogPath string
	InfoLogPath  string
	Level        string
}

// CustomFormatter renders "[time] [LEVL] (file:func:line) message".
type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("15:04:05 MST 2006/01/02")

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	msg := fmt.Sprintf("[%s] [%s] (%s) %s\n", timestamp, level, getCaller(), entry.Message)
	return []byte(msg), nil
}

// getCaller walks past logrus/this package's own frames to find the first
// real caller, formatted as "file:func:line".
func getCaller() string {
	for i := 2; i < 20; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		if strings.Contains(file, "/logrus/") ||
			strings.Contains(file, "logger/logger.go") ||
			strings.Contains(file, "sirupsen") ||
			strings.Contains(file, "/entry.go") {
			continue
		}

		funcName := runtime.FuncForPC(pc).Name()
		return fmt.Sprintf("%s:%s:%d", filepath.Base(file), funcName, line)
	}

	return "unknown:unknown:0"
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// InitLogger (re)configures the three package loggers. Safe to call more
// than once; later calls replace earlier output targets.
func InitLogger(cfg Config) error {
	formatter := &CustomFormatter{}

	Logger = logrus.New()
	Logger.SetFormatter(formatter)
	Logger.SetLevel(parseLevel(cfg.Level))

	InfoLogger = logrus.New()
	InfoLogger.SetFormatter(formatter)
	InfoLogger.SetLevel(parseLevel(cfg.Level))

	ErrorLogger = logrus.New()
	ErrorLogger.SetFormatter(formatter)
	ErrorLogger.SetLevel(parseLevel(cfg.Level))

	if cfg.InfoLogPath != "" {
		f, err := openLogFile(cfg.InfoLogPath)
		if err != nil {
			InfoLogger.SetOutput(os.Stdout)
			InfoLogger.Warnf("failed to open info log %s, falling back to stdout: %v", cfg.InfoLogPath, err)
		} else {
			InfoLogger.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	} else {
		InfoLogger.SetOutput(os.Stdout)
	}

	if cfg.ErrorLogPath != "" {
		f, err := openLogFile(cfg.ErrorLogPath)
		if err != nil {
			ErrorLogger.SetOutput(os.Stderr)
			ErrorLogger.Warnf("failed to open error log %s, falling back to stderr: %v", cfg.ErrorLogPath, err)
		} else {
			ErrorLogger.SetOutput(io.MultiWriter(os.Stderr, f))
		}
	} else {
		ErrorLogger.SetOutput(os.Stderr)
	}

	Logger.SetOutput(InfoLogger.Out)
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

func Info(args ...interface{})                 { InfoLogger.Info(args...) }
func Infof(format string, args ...interface{})  { InfoLogger.Infof(format, args...) }
func Debug(args ...interface{})                 { Logger.Debug(args...) }
func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }
func Warn(args ...interface{})                  { Logger.Warn(args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Error(args ...interface{})                 { ErrorLogger.Error(args...) }
func Errorf(format string, args ...interface{}) { ErrorLogger.Errorf(format, args...) }
