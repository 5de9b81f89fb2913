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

// Package memq wires the memory queue BIOs to configuration, logging and metrics.
//
// A program loads its config once with Setup or SetupFromFile and then creates
// BIOs with NewBIO, which follow the configured method and defaults.
package memq

import (
	"errors"
	"flag"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"

	"trpc.group/trpc-go/memq/bio"
	"trpc.group/trpc-go/memq/config"
	"trpc.group/trpc-go/memq/errs"
	"trpc.group/trpc-go/memq/internal/allocator"
	"trpc.group/trpc-go/memq/log"
	"trpc.group/trpc-go/memq/metrics"
)

const defaultConfigPath = "./memq.yaml"

// ConfigPath is the config file path used by SetupFromFile when it is given
// an empty path. It can be overridden by the flag -memq_conf.
var ConfigPath = defaultConfigPath

func configPath() string {
	if ConfigPath == defaultConfigPath && !flag.Parsed() {
		flag.StringVar(&ConfigPath, "memq_conf", defaultConfigPath, "memq config path")
		flag.Parse()
	}
	return ConfigPath
}

// Sink names accepted in the metrics section.
const (
	SinkConsole    = "console"
	SinkNoop       = "noop"
	SinkPrometheus = "prometheus"
)

type consoleOptions struct {
	Output string `mapstructure:"output"` // stdout or stderr.
}

type prometheusOptions struct {
	Namespace string `mapstructure:"namespace"`
}

// SetupOption is the option of Setup.
type SetupOption func(*setupOptions)

type setupOptions struct {
	reg    prometheus.Registerer
	stdout io.Writer
	stderr io.Writer
}

// WithRegisterer sets the registry prometheus sinks register on,
// prometheus.DefaultRegisterer by default.
func WithRegisterer(reg prometheus.Registerer) SetupOption {
	return func(o *setupOptions) {
		o.reg = reg
	}
}

// WithConsoleOutput redirects the console sink outputs.
func WithConsoleOutput(stdout, stderr io.Writer) SetupOption {
	return func(o *setupOptions) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

var (
	mu        sync.RWMutex
	globalCfg = defaultConfig()
	method    = config.MethodMemQ
	tracker   *allocator.Tracker
)

func defaultConfig() *config.Config {
	return &config.Config{BIO: config.BIOConfig{Method: config.MethodMemQ}}
}

// GlobalConfig returns the config installed by the last Setup.
func GlobalConfig() *config.Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalCfg
}

// SetupFromFile loads path, ConfigPath if empty, and calls Setup.
func SetupFromFile(path string, opts ...SetupOption) (func() error, error) {
	if path == "" {
		path = configPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return Setup(cfg, opts...)
}

// Setup installs cfg: the default logger, the metrics sinks and the defaults
// of new BIOs. The returned function unregisters the sinks, syncs the logger and
// reports chunks still allocated when tracking is on. It also undoes the std log
// redirection.
func Setup(cfg *config.Config, opts ...SetupOption) (func() error, error) {
	o := &setupOptions{reg: prometheus.DefaultRegisterer, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	var logger log.Logger
	if len(cfg.Log) > 0 {
		l, err := log.New(cfg.Log)
		if err != nil {
			return nil, errs.WrapFrameError(err, errs.RetConfig, "memq: setup log")
		}
		logger = l
	}

	sinks := make([]metrics.Sink, 0, len(cfg.Metrics.Sinks))
	for _, sc := range cfg.Metrics.Sinks {
		s, err := newSink(sc, o)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	bioOpts := bio.Options{CloseFlag: bio.NoClose, EmptyReturn: cfg.BIO.EffectiveEmptyReturn()}
	if cfg.BIO.EffectiveCloseOnFree() {
		bioOpts.CloseFlag = bio.CloseOnFree
	}
	var tr *allocator.Tracker
	if cfg.BIO.Tracking {
		tr = allocator.NewTracker(allocator.Default())
		bioOpts.Allocator = tr
	}

	restoreStdLog := func() {}
	if cfg.RedirectStdLog {
		l := logger
		if l == nil {
			l = log.GetDefaultLogger()
		}
		restore, err := log.RedirectStdLog(l)
		if err != nil {
			return nil, errs.WrapFrameError(err, errs.RetConfig, "memq: redirect std log")
		}
		restoreStdLog = restore
	}

	if logger != nil {
		log.SetLogger(logger)
	}
	for _, s := range sinks {
		metrics.RegisterMetricsSink(s)
	}
	bio.SetDefaultOptions(bioOpts)
	mu.Lock()
	globalCfg = cfg
	method = cfg.BIO.Method
	tracker = tr
	mu.Unlock()
	log.Debugf("memq: setup done, method %s, %d metrics sinks, tracking %t",
		cfg.BIO.Method, len(sinks), cfg.BIO.Tracking)

	return func() error {
		var result *multierror.Error
		for _, s := range sinks {
			metrics.UnregisterMetricsSink(s.Name())
		}
		if tr != nil {
			if n := tr.Outstanding(); n > 0 {
				log.Warnf("memq: %d chunks (%d bytes) still allocated", n, tr.OutstandingBytes())
			}
		}
		restoreStdLog()
		if err := log.GetDefaultLogger().Sync(); err != nil && !isSyncUnsupported(err) {
			result = multierror.Append(result, err)
		}
		return result.ErrorOrNil()
	}, nil
}

func newSink(sc config.SinkConfig, o *setupOptions) (metrics.Sink, error) {
	switch sc.Name {
	case SinkConsole:
		var co consoleOptions
		if err := sc.Decode(&co); err != nil {
			return nil, err
		}
		switch co.Output {
		case "", "stdout":
			return metrics.NewConsoleSinkTo(o.stdout), nil
		case "stderr":
			return metrics.NewConsoleSinkTo(o.stderr), nil
		default:
			return nil, errs.NewFrameError(errs.RetConfig, "memq: console sink output "+co.Output)
		}
	case SinkNoop:
		return &metrics.NoopSink{}, nil
	case SinkPrometheus:
		po := prometheusOptions{Namespace: "memq"}
		if err := sc.Decode(&po); err != nil {
			return nil, err
		}
		return metrics.NewPrometheusSink(po.Namespace, o.reg), nil
	default:
		return nil, errs.NewFrameError(errs.RetConfig, "memq: unknown metrics sink "+sc.Name)
	}
}

// Syncing a terminal fails with EINVAL or ENOTTY, which is not worth reporting.
func isSyncUnsupported(err error) bool {
	var pe *os.PathError
	return errors.As(err, &pe)
}

// NewBIO creates a BIO of the configured method with the configured defaults.
// opts override the defaults.
func NewBIO(opts ...bio.Option) *bio.BIO {
	mu.RLock()
	m := method
	mu.RUnlock()
	if m == config.MethodMem {
		return bio.NewMem(opts...)
	}
	return bio.NewMemQ(opts...)
}

// Outstanding returns the chunks and bytes allocated by BIOs and not yet freed.
// It reports zeros unless tracking is on.
func Outstanding() (chunks int, bytes int64) {
	mu.RLock()
	tr := tracker
	mu.RUnlock()
	if tr == nil {
		return 0, 0
	}
	return tr.Outstanding(), tr.OutstandingBytes()
}
