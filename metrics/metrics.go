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

// Package metrics defines counters and gauges reported to pluggable sinks.
//
//  1. counter
//     - bytesWritten := metrics.Counter("memq.bytes.written")
//     bytesWritten.IncrBy(50)
//     - metrics.IncrCounter("memq.bytes.written", 50)
//
//  2. gauge
//     - depth := metrics.Gauge("memq.chunks.depth")
//     depth.Set(3)
//     - metrics.SetGauge("memq.chunks.depth", 3)
//
// Nothing is reported until a Sink is registered.
package metrics

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"trpc.group/trpc-go/memq/errs"
)

var (
	// metricsSinks emits same metrics information to multi external system at the same time.
	metricsSinksMutex = sync.RWMutex{}
	metricsSinks      = map[string]Sink{}

	countersMutex = sync.RWMutex{}
	counters      = map[string]ICounter{}

	gaugesMutex = sync.RWMutex{}
	gauges      = map[string]IGauge{}
)

// RegisterMetricsSink registers a Sink, replacing any sink of the same name.
func RegisterMetricsSink(sink Sink) {
	metricsSinksMutex.Lock()
	metricsSinks[sink.Name()] = sink
	metricsSinksMutex.Unlock()
}

// UnregisterMetricsSink removes the Sink named name.
func UnregisterMetricsSink(name string) {
	metricsSinksMutex.Lock()
	delete(metricsSinks, name)
	metricsSinksMutex.Unlock()
}

// GetMetricsSink gets a Sink by name.
func GetMetricsSink(name string) (Sink, bool) {
	metricsSinksMutex.RLock()
	sink, ok := metricsSinks[name]
	metricsSinksMutex.RUnlock()
	return sink, ok
}

// Counter creates a named counter.
func Counter(name string) ICounter {
	countersMutex.RLock()
	c, ok := counters[name]
	countersMutex.RUnlock()
	if ok && c != nil {
		return c
	}

	countersMutex.Lock()
	defer countersMutex.Unlock()
	if c, ok = counters[name]; ok && c != nil {
		return c
	}
	c = &counter{name: name}
	counters[name] = c
	return c
}

// Gauge creates a named gauge.
func Gauge(name string) IGauge {
	gaugesMutex.RLock()
	g, ok := gauges[name]
	gaugesMutex.RUnlock()
	if ok && g != nil {
		return g
	}

	gaugesMutex.Lock()
	defer gaugesMutex.Unlock()
	if g, ok = gauges[name]; ok && g != nil {
		return g
	}
	g = &gauge{name: name}
	gauges[name] = g
	return g
}

// IncrCounter increases counter key by value. Counters should accumulate values.
func IncrCounter(key string, value float64) {
	Counter(key).IncrBy(value)
}

// SetGauge sets gauge key to value. An IGauge retains the last set value.
func SetGauge(key string, value float64) {
	Gauge(key).Set(value)
}

// Report reports a record to every registered sink.
// Errors of individual sinks are collected, a failing sink does not stop the others.
func Report(rec Record, opts ...Option) error {
	metricsSinksMutex.RLock()
	defer metricsSinksMutex.RUnlock()
	var result *multierror.Error
	for _, sink := range metricsSinks {
		if err := sink.Report(rec, opts...); err != nil {
			result = multierror.Append(result,
				errs.WrapFrameError(err, errs.RetMetrics, "sink "+sink.Name()))
		}
	}
	return result.ErrorOrNil()
}

func hasSinks() bool {
	metricsSinksMutex.RLock()
	defer metricsSinksMutex.RUnlock()
	return len(metricsSinks) != 0
}
