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

import (
	"bytes"
	stdlog "log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newZapBufLogger returns a logger writing to buf.
func newZapBufLogger(buf *bytes.Buffer, level zapcore.Level) Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	lvl := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(encoder, zapcore.AddSync(buf), lvl)
	return &zapLog{
		levels: []zap.AtomicLevel{lvl},
		logger: zap.New(core, zap.AddCaller()),
	}
}

func TestZapLog_Levels(t *testing.T) {
	buf := &bytes.Buffer{}
	l := newZapBufLogger(buf, zapcore.InfoLevel)

	l.Debug("hidden")
	l.Debugf("hidden %d", 1)
	l.Trace("hidden")
	require.Zero(t, buf.Len())

	l.Info("shown", 1)
	l.Warnf("warned %s", "x")
	l.Error("oops")
	require.Contains(t, buf.String(), "shown 1")
	require.Contains(t, buf.String(), "warned x")
	require.Contains(t, buf.String(), "oops")

	require.Equal(t, LevelInfo, l.GetLevel("0"))
	l.SetLevel("0", LevelDebug)
	require.Equal(t, LevelDebug, l.GetLevel("0"))
	l.Debugf("now %s", "visible")
	require.Contains(t, buf.String(), "now visible")

	l.SetLevel("x", LevelError)
	l.SetLevel("9", LevelError)
	require.Equal(t, LevelDebug, l.GetLevel("x"))
	require.Equal(t, LevelDebug, l.GetLevel("9"))
}

func TestZapLog_With(t *testing.T) {
	buf := &bytes.Buffer{}
	l := newZapBufLogger(buf, zapcore.DebugLevel).With(Field{Key: "bio", Value: "memq"})
	l.Info("hello")
	require.Contains(t, buf.String(), `"bio": "memq"`)
}

func TestNew_FileWriter(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Config{{
		Writer:      FileZapCore,
		Level:       "debug",
		Formatter:   "json",
		WriteConfig: WriteConfig{LogPath: dir, Filename: "memq.log"},
	}})
	require.Nil(t, err)
	l.Infof("chunk %d retired", 3)
	require.Nil(t, l.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "memq.log"))
	require.Nil(t, err)
	require.Contains(t, string(data), "chunk 3 retired")
	require.Contains(t, string(data), `"L":"INFO"`)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{{Writer: "kafka"}})
	require.NotNil(t, err)

	_, err = New(Config{{Writer: FileZapCore}})
	require.NotNil(t, err)

	require.Panics(t, func() { NewZapLog(Config{{Writer: "kafka"}}) })
}

func TestDefaultLogger(t *testing.T) {
	old := GetDefaultLogger()
	defer SetLogger(old)

	buf := &bytes.Buffer{}
	SetLogger(newZapBufLogger(buf, zapcore.DebugLevel))
	Debugf("d%d", 1)
	Infof("i%d", 2)
	Warn("w3")
	Errorf("e%d", 4)
	With(Field{Key: "k", Value: 5}).Info("with")
	for _, s := range []string{"d1", "i2", "w3", "e4", "with"} {
		require.Contains(t, buf.String(), s)
	}

	SetLevel("0", LevelError)
	require.Equal(t, LevelError, GetLevel("0"))
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "warn", LevelWarn.String())
	require.Equal(t, "", LevelNil.String())
}

func TestRedirectStdLog(t *testing.T) {
	buf := &bytes.Buffer{}
	restore, err := RedirectStdLogAt(newZapBufLogger(buf, zapcore.DebugLevel), zapcore.WarnLevel)
	require.Nil(t, err)
	stdlog.Print("from std log")
	restore()
	require.Contains(t, buf.String(), "WARN")
	require.Contains(t, buf.String(), "from std log")

	_, err = RedirectStdLog(nil)
	require.NotNil(t, err)
}
