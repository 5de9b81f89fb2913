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

// Package config loads the memq configuration from YAML or TOML files.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	yaml "gopkg.in/yaml.v3"

	"trpc.group/trpc-go/memq/errs"
	"trpc.group/trpc-go/memq/internal/expandenv"
	"trpc.group/trpc-go/memq/log"
)

// BIO method names.
const (
	MethodMemQ = "memq"
	MethodMem  = "mem"
)

// Config is the memq configuration.
type Config struct {
	BIO     BIOConfig     `yaml:"bio" toml:"bio"`
	Log     log.Config    `yaml:"log" toml:"log"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	// RedirectStdLog sends the output of the standard library log package to
	// the memq logger at INFO level.
	RedirectStdLog bool `yaml:"redirect_std_log" toml:"redirect_std_log"`
}

// BIOConfig configures the BIOs created through the root package.
type BIOConfig struct {
	// Method is memq or mem, memq by default.
	Method string `yaml:"method" toml:"method"`
	// CloseOnFree controls whether Free releases the queued data, true by default.
	CloseOnFree *bool `yaml:"close_on_free" toml:"close_on_free"`
	// EmptyReturn selects what an empty read reports, -1 by default.
	// Zero means io.EOF.
	EmptyReturn *int64 `yaml:"empty_return" toml:"empty_return"`
	// Tracking counts chunk allocations so leaks can be reported.
	Tracking bool `yaml:"tracking" toml:"tracking"`
}

// MetricsConfig lists the metrics sinks to install.
type MetricsConfig struct {
	Sinks []SinkConfig `yaml:"sinks" toml:"sinks"`
}

// SinkConfig is a metrics sink, options are sink specific.
type SinkConfig struct {
	Name    string                 `yaml:"name" toml:"name"`
	Options map[string]interface{} `yaml:"options" toml:"options"`
}

// Decode decodes the sink options into out, which must be a pointer to a struct
// tagged with mapstructure.
func (s SinkConfig) Decode(out interface{}) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return errs.WrapFrameError(err, errs.RetConfig, "config: sink "+s.Name)
	}
	if err := d.Decode(s.Options); err != nil {
		return errs.WrapFrameError(err, errs.RetConfig, "config: sink "+s.Name)
	}
	return nil
}

// EffectiveCloseOnFree returns the close flag with the default applied.
func (c BIOConfig) EffectiveCloseOnFree() bool {
	return c.CloseOnFree == nil || *c.CloseOnFree
}

// EffectiveEmptyReturn returns the empty return value with the default applied.
func (c BIOConfig) EffectiveEmptyReturn() int64 {
	if c.EmptyReturn == nil {
		return -1
	}
	return *c.EmptyReturn
}

// Unmarshaler defines a unmarshal interface, this will
// be used to parse config data.
type Unmarshaler interface {
	// Unmarshal deserializes the data bytes into value parameter.
	Unmarshal(data []byte, value interface{}) error
}

var (
	unmarshalers = make(map[string]Unmarshaler)
	lock         sync.RWMutex
)

// YamlUnmarshaler is yaml unmarshaler.
type YamlUnmarshaler struct{}

// Unmarshal deserializes the data bytes into parameter val in yaml protocol.
func (yu *YamlUnmarshaler) Unmarshal(data []byte, val interface{}) error {
	return yaml.Unmarshal(data, val)
}

// JSONUnmarshaler is json unmarshaler.
type JSONUnmarshaler struct{}

// Unmarshal deserializes the data bytes into parameter val in json protocol.
func (ju *JSONUnmarshaler) Unmarshal(data []byte, val interface{}) error {
	return json.Unmarshal(data, val)
}

// TomlUnmarshaler is toml unmarshaler.
type TomlUnmarshaler struct{}

// Unmarshal deserializes the data bytes into parameter val in toml protocol.
func (tu *TomlUnmarshaler) Unmarshal(data []byte, val interface{}) error {
	return toml.Unmarshal(data, val)
}

func init() {
	RegisterUnmarshaler("yaml", &YamlUnmarshaler{})
	RegisterUnmarshaler("yml", &YamlUnmarshaler{})
	RegisterUnmarshaler("json", &JSONUnmarshaler{})
	RegisterUnmarshaler("toml", &TomlUnmarshaler{})
}

// RegisterUnmarshaler registers an unmarshaler by name.
func RegisterUnmarshaler(name string, us Unmarshaler) {
	lock.Lock()
	unmarshalers[name] = us
	lock.Unlock()
}

// GetUnmarshaler returns an unmarshaler by name.
func GetUnmarshaler(name string) Unmarshaler {
	lock.RLock()
	defer lock.RUnlock()
	return unmarshalers[name]
}

// LoadOption is the option of Load and Parse.
type LoadOption func(*loadOptions)

type loadOptions struct {
	format    string
	expandEnv bool
}

// WithFormat forces the unmarshaler name instead of guessing it from the file
// extension.
func WithFormat(name string) LoadOption {
	return func(o *loadOptions) {
		o.format = name
	}
}

// WithoutExpandEnv keeps ${VAR} in the config text as is.
func WithoutExpandEnv() LoadOption {
	return func(o *loadOptions) {
		o.expandEnv = false
	}
}

// Load reads path and parses it. The format follows the file extension.
func Load(path string, opts ...LoadOption) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapFrameError(err, errs.RetConfig, "config: read "+path)
	}
	return Parse(data, formatOf(path), opts...)
}

// Parse decodes data in the given format and applies defaults.
func Parse(data []byte, format string, opts ...LoadOption) (*Config, error) {
	o := &loadOptions{format: format, expandEnv: true}
	for _, opt := range opts {
		opt(o)
	}
	u := GetUnmarshaler(o.format)
	if u == nil {
		return nil, errs.NewFrameError(errs.RetConfig, "config: unsupported format "+o.format)
	}
	if o.expandEnv {
		data = expandenv.ExpandEnv(data)
	}
	cfg := &Config{}
	if err := u.Unmarshal(data, cfg); err != nil {
		return nil, errs.WrapFrameError(err, errs.RetConfig, "config: parse "+o.format)
	}
	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() error {
	switch c.BIO.Method {
	case "":
		c.BIO.Method = MethodMemQ
	case MethodMemQ, MethodMem:
	default:
		return errs.NewFrameError(errs.RetConfig, "config: unknown bio method "+c.BIO.Method)
	}
	for i, s := range c.Metrics.Sinks {
		if s.Name == "" {
			return errs.Newf(errs.RetConfig, "config: metrics sink %d has no name", i)
		}
	}
	return nil
}

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
