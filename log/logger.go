//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package log

import "sync"

// Level is the log level.
type Level int

// Enums log level constants.
const (
	LevelNil Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelStrings = map[Level]string{
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

// String returns the name of the level.
func (l Level) String() string {
	return levelStrings[l]
}

// Field is the user defined log field.
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the underlying logging work for memq.
type Logger interface {
	Trace(args ...interface{})
	Tracef(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	// Sync flushes buffered logs.
	Sync() error
	// SetLevel sets the level of output "0", "1", ...
	SetLevel(output string, level Level)
	// GetLevel gets the level of output "0", "1", ...
	GetLevel(output string) Level
	// With adds user defined fields to Logger.
	With(fields ...Field) Logger
}

// OptionLogger is a Logger whose options can be changed.
type OptionLogger interface {
	WithOptions(opts ...Option) Logger
}

// Option modifies the options of optionLogger.
type Option func(*options)

type options struct {
	skip int
}

// WithAdditionalCallerSkip adds additional caller skip.
func WithAdditionalCallerSkip(skip int) Option {
	return func(o *options) {
		o.skip = skip
	}
}

// Config is the log config. Each OutputConfig is one output, outputs are
// addressed by their index ("0", "1", ...) in SetLevel and GetLevel.
type Config []OutputConfig

// OutputConfig is the output config, which includes console, file and so on.
type OutputConfig struct {
	// Writer is the output of log, such as console or file.
	Writer      string      `yaml:"writer" toml:"writer"`
	WriteConfig WriteConfig `yaml:"writer_config" toml:"writer_config"`

	// Formatter is the format of log, such as console or json.
	Formatter    string       `yaml:"formatter" toml:"formatter"`
	FormatConfig FormatConfig `yaml:"formatter_config" toml:"formatter_config"`

	// Level controls the log level, like debug, info or error.
	Level string `yaml:"level" toml:"level"`

	// EnableColor determines if the output is colored.
	EnableColor bool `yaml:"enable_color" toml:"enable_color"`
}

// WriteConfig is the file writer config.
type WriteConfig struct {
	// LogPath is the directory of Filename.
	LogPath string `yaml:"log_path" toml:"log_path"`
	// Filename is the file name like memq.log.
	Filename string `yaml:"filename" toml:"filename"`
}

// FormatConfig is the log format config.
type FormatConfig struct {
	// TimeFmt is the time format of log output, default as "2006-01-02 15:04:05.000" on empty.
	TimeFmt string `yaml:"time_fmt" toml:"time_fmt"`

	// TimeKey is the time key of log output, default as "T".
	TimeKey string `yaml:"time_key" toml:"time_key"`
	// LevelKey is the level key of log output, default as "L".
	LevelKey string `yaml:"level_key" toml:"level_key"`
	// NameKey is the name key of log output, default as "N".
	NameKey string `yaml:"name_key" toml:"name_key"`
	// CallerKey is the caller key of log output, default as "C".
	CallerKey string `yaml:"caller_key" toml:"caller_key"`
	// MessageKey is the message key of log output, default as "M".
	MessageKey string `yaml:"message_key" toml:"message_key"`
	// StacktraceKey is the stack trace key of log output, default as "S".
	StacktraceKey string `yaml:"stacktrace_key" toml:"stacktrace_key"`
}

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   = NewZapLog(defaultConfig)
)

// SetLogger sets the default Logger.
func SetLogger(logger Logger) {
	defaultLoggerMu.Lock()
	defaultLogger = logger
	defaultLoggerMu.Unlock()
}

// GetDefaultLogger gets the default Logger.
func GetDefaultLogger() Logger {
	defaultLoggerMu.RLock()
	l := defaultLogger
	defaultLoggerMu.RUnlock()
	return l
}
