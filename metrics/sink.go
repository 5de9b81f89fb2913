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

// Policy tells a sink how to aggregate a sample.
type Policy int

// Aggregation policies.
const (
	PolicyNONE Policy = iota
	PolicySET         // keep the last value.
	PolicySUM         // add up the values.
)

// Sink receives every reported Record.
type Sink interface {
	Name() string
	Report(rec Record, opts ...Option) error
}

// Dimension is a label attached to every sample of a Record.
type Dimension struct {
	Name  string
	Value string
}

// Sample is one value of a Record.
type Sample struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Policy Policy  `json:"policy"`
}

// Record groups samples which share the same dimensions. Counters and gauges
// report unnamed records without dimensions.
type Record struct {
	Name       string
	Dimensions []Dimension
	Samples    []Sample
}

// NewRecord creates a named Record.
func NewRecord(name string, dims []Dimension, samples ...Sample) Record {
	return Record{Name: name, Dimensions: dims, Samples: samples}
}

// Single creates a Record of one sample without dimensions.
func Single(name string, value float64, policy Policy) Record {
	return Record{Samples: []Sample{{Name: name, Value: value, Policy: policy}}}
}
