// Package logging builds the process logger. Diagnostics always go to
// stderr; stdout is reserved for command output.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a console logger on stderr at the given level. When file is
// non-empty the same output is also appended to a size-rotated log file.
func New(level, file string) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	sink := zapcore.Lock(os.Stderr)
	core := zapcore.NewCore(encoder, sink, parseLevel(level))

	if file != "" {
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		})
		core = zapcore.NewTee(core, zapcore.NewCore(encoder, fileSink, parseLevel(level)))
	}

	return zap.New(core)
}

func parseLevel(level string) zapcore.Level {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}
