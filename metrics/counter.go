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

// ICounter is the interface that emits counter type metrics.
type ICounter interface {
	// Incr increments the counter by one.
	Incr()

	// IncrBy increments the counter by delta.
	IncrBy(delta float64)
}

// counter is reported to each registered Sink.
type counter struct {
	name string
}

// Incr increases counter by one.
func (c *counter) Incr() {
	c.IncrBy(1)
}

// IncrBy increases counter by v and reports to every sink.
func (c *counter) IncrBy(v float64) {
	if !hasSinks() {
		return
	}
	_ = Report(Single(c.name, v, PolicySUM))
}

// IGauge is the interface that emits gauge metrics.
type IGauge interface {
	// Set sets the gauges absolute value.
	Set(value float64)
}

// gauge is reported to each registered Sink.
type gauge struct {
	name string
}

// Set updates the gauge value.
func (g *gauge) Set(v float64) {
	if !hasSinks() {
		return
	}
	_ = Report(Single(g.name, v, PolicySET))
}
