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

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/memq/errs"
	"trpc.group/trpc-go/memq/log"
)

func wantTestdata() *Config {
	closeOnFree, emptyReturn := false, int64(0)
	return &Config{
		BIO: BIOConfig{
			Method:      MethodMem,
			CloseOnFree: &closeOnFree,
			EmptyReturn: &emptyReturn,
			Tracking:    true,
		},
		Log: log.Config{{
			Writer:    "console",
			Level:     "debug",
			Formatter: "json",
		}},
		Metrics: MetricsConfig{Sinks: []SinkConfig{
			{Name: "console"},
			{Name: "prometheus", Options: map[string]interface{}{"namespace": "memq"}},
		}},
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("MEMQ_TEST_LEVEL", "debug")
	for _, path := range []string{"testdata/memq.yaml", "testdata/memq.toml"} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, err := Load(path)
			require.Nil(t, err)
			if diff := cmp.Diff(wantTestdata(), cfg); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
			require.False(t, cfg.BIO.EffectiveCloseOnFree())
			require.Zero(t, cfg.BIO.EffectiveEmptyReturn())
		})
	}
}

func TestLoad_WithoutExpandEnv(t *testing.T) {
	t.Setenv("MEMQ_TEST_LEVEL", "debug")
	cfg, err := Load("testdata/memq.yaml", WithoutExpandEnv())
	require.Nil(t, err)
	require.Equal(t, "${MEMQ_TEST_LEVEL}", cfg.Log[0].Level)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"), "json")
	require.Nil(t, err)
	require.Equal(t, MethodMemQ, cfg.BIO.Method)
	require.True(t, cfg.BIO.EffectiveCloseOnFree())
	require.EqualValues(t, -1, cfg.BIO.EffectiveEmptyReturn())
	require.False(t, cfg.BIO.Tracking)
	require.Empty(t, cfg.Log)
	require.Empty(t, cfg.Metrics.Sinks)
	require.False(t, cfg.RedirectStdLog)

	cfg, err = Parse([]byte("redirect_std_log = true\n"), "toml")
	require.Nil(t, err)
	require.True(t, cfg.RedirectStdLog)
}

func TestParse_Errors(t *testing.T) {
	for _, tt := range []struct {
		name   string
		data   string
		format string
	}{
		{"unsupported format", "bio: {}", "ini"},
		{"broken yaml", "bio: [", "yaml"},
		{"unknown method", "bio:\n  method: socket\n", "yaml"},
		{"unnamed sink", "metrics:\n  sinks:\n    - options: {a: 1}\n", "yaml"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			require.NotNil(t, err)
			require.Equal(t, errs.RetConfig, errs.Code(err))
		})
	}

	_, err := Load("testdata/not_exist.yaml")
	require.Equal(t, errs.RetConfig, errs.Code(err))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_WithFormat(t *testing.T) {
	cfg, err := Parse([]byte("[bio]\nmethod = \"mem\"\n"), "", WithFormat("toml"))
	require.Nil(t, err)
	require.Equal(t, MethodMem, cfg.BIO.Method)
}

func TestSinkConfig_Decode(t *testing.T) {
	type promOptions struct {
		Namespace string `mapstructure:"namespace"`
		Buckets   int    `mapstructure:"buckets"`
	}
	s := SinkConfig{Name: "prometheus", Options: map[string]interface{}{
		"namespace": "memq",
		"buckets":   "8",
	}}
	var o promOptions
	require.Nil(t, s.Decode(&o))
	require.Equal(t, promOptions{Namespace: "memq", Buckets: 8}, o)

	s.Options["bogus"] = true
	err := s.Decode(&o)
	require.NotNil(t, err)
	require.Equal(t, errs.RetConfig, errs.Code(err))

	require.Nil(t, SinkConfig{Name: "console"}.Decode(&o))
}

func TestFormatOf(t *testing.T) {
	require.Equal(t, "yaml", formatOf("a/b/memq.YAML"))
	require.Equal(t, "toml", formatOf("memq.toml"))
	require.Equal(t, "", formatOf("memq"))
}

func TestRegisterUnmarshaler(t *testing.T) {
	require.NotNil(t, GetUnmarshaler("yml"))
	require.Nil(t, GetUnmarshaler("ini"))
	RegisterUnmarshaler("conf", &YamlUnmarshaler{})
	defer func() {
		lock.Lock()
		delete(unmarshalers, "conf")
		lock.Unlock()
	}()
	cfg, err := Parse([]byte("bio:\n  method: mem\n"), "conf")
	require.Nil(t, err)
	require.Equal(t, MethodMem, cfg.BIO.Method)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memq.yaml")
	require.Nil(t, os.WriteFile(path, []byte("bio:\n  method: memq\n"), 0644))
	past := time.Now().Add(-time.Hour)
	require.Nil(t, os.Chtimes(path, past, past))

	var (
		mu  sync.Mutex
		got []*Config
	)
	w, cfg, err := Watch(path, func(c *Config, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})
	require.Nil(t, err)
	defer w.Close()
	require.Equal(t, MethodMemQ, cfg.BIO.Method)

	tmp := path + ".tmp"
	require.Nil(t, os.WriteFile(tmp, []byte("bio:\n  method: mem\n"), 0644))
	require.Nil(t, os.Rename(tmp, path))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1].BIO.Method == MethodMem
	}, 5*time.Second, 10*time.Millisecond)

	require.Nil(t, w.Close())
	require.Nil(t, w.Close())
}

func TestWatch_Errors(t *testing.T) {
	_, _, err := Watch("testdata/not_exist.yaml", func(*Config, error) {})
	require.Equal(t, errs.RetConfig, errs.Code(err))
}

func TestWatcher_IsModified(t *testing.T) {
	w, err := NewWatcher()
	require.Nil(t, err)
	defer w.Close()

	path := filepath.Join(t.TempDir(), "memq.yaml")
	require.Nil(t, os.WriteFile(path, []byte("{}"), 0644))

	_, ok := w.isModified(fsnotifyEvent(path, false))
	require.False(t, ok, "not a write")
	_, ok = w.isModified(fsnotifyEvent(path, true))
	require.False(t, ok, "not watched")

	w.cbs[filepath.Clean(path)] = []Callback{func(*Config, error) {}}
	cbs, ok := w.isModified(fsnotifyEvent(path, true))
	require.True(t, ok)
	require.Len(t, cbs, 1)
	_, ok = w.isModified(fsnotifyEvent(path, true))
	require.False(t, ok, "mod time did not move")
}

func fsnotifyEvent(path string, write bool) fsnotify.Event {
	op := fsnotify.Chmod
	if write {
		op = fsnotify.Write
	}
	return fsnotify.Event{Name: path, Op: op}
}
