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

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// NewConsoleSink creates a ConsoleSink which prints to stdout.
func NewConsoleSink() *ConsoleSink {
	return NewConsoleSinkTo(os.Stdout)
}

// NewConsoleSinkTo creates a ConsoleSink which prints to w.
func NewConsoleSinkTo(w io.Writer) *ConsoleSink {
	return &ConsoleSink{
		w:        w,
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
	}
}

// ConsoleSink prints every record and keeps running totals for inspection.
type ConsoleSink struct {
	w io.Writer

	mu       sync.RWMutex
	counters map[string]float64
	gauges   map[string]float64
}

// Name returns console sink name.
func (c *ConsoleSink) Name() string {
	return "console"
}

// Report reports a record.
func (c *ConsoleSink) Report(rec Record, opts ...Option) error {
	if len(rec.Dimensions) == 0 {
		c.reportSingleDimensionMetrics(rec)
		return nil
	}
	return c.reportMultiDimensionMetrics(rec, opts...)
}

// CounterValue returns the accumulated value of counter key.
func (c *ConsoleSink) CounterValue(key string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[key]
}

// GaugeValue returns the last value of gauge key.
func (c *ConsoleSink) GaugeValue(key string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gauges[key]
}

func (c *ConsoleSink) reportSingleDimensionMetrics(rec Record) {
	for _, m := range rec.Samples {
		switch m.Policy {
		case PolicySUM:
			c.mu.Lock()
			c.counters[m.Name] += m.Value
			c.mu.Unlock()
			fmt.Fprintf(c.w, "metrics counter[key] = %s val = %v\n", m.Name, m.Value)
		case PolicySET:
			c.mu.Lock()
			c.gauges[m.Name] = m.Value
			c.mu.Unlock()
			fmt.Fprintf(c.w, "metrics gauge[key] = %s val = %v\n", m.Name, m.Value)
		}
	}
}

func (c *ConsoleSink) reportMultiDimensionMetrics(rec Record, opts ...Option) error {
	buf, err := json.Marshal(struct {
		Name       string                 `json:"name"`
		Dimensions []Dimension            `json:"dimensions"`
		Metrics    []Sample               `json:"metrics"`
		Meta       map[string]interface{} `json:"meta,omitempty"`
	}{
		Name:       rec.Name,
		Dimensions: rec.Dimensions,
		Metrics:    rec.Samples,
		Meta:       newOptions(opts...).Meta,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.w, "metrics multi-dimension = %s\n", buf)
	return nil
}
