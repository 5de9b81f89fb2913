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

package metrics

// Options defines the report options.
type Options struct {
	// Meta lets a sink map a metric name to something of its own, such as a monitor id.
	Meta map[string]interface{}
}

// Option modifies the Options.
type Option func(opts *Options)

// WithMeta returns an Option which sets the metadata.
func WithMeta(meta map[string]interface{}) Option {
	return func(opts *Options) {
		if opts != nil {
			opts.Meta = meta
		}
	}
}

func newOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
