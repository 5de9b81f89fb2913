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
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// NewPrometheusSink creates a sink which exports records as prometheus collectors
// registered on reg. A collector already registered under the same name is reused,
// so sinks can be recreated on one registry. Metric names have "." replaced by "_" and are prefixed by namespace.
func NewPrometheusSink(namespace string, reg prometheus.Registerer) *PrometheusSink {
	return &PrometheusSink{
		namespace: namespace,
		reg:       reg,
		counters:  make(map[string]*prometheus.CounterVec),
		gauges:    make(map[string]*prometheus.GaugeVec),
	}
}

// PrometheusSink maps SUM metrics to counters and SET metrics to gauges.
// Record dimensions become labels, a metric keeps the label names it was first seen with.
// A record with other label names for the same metric is reported as an error.
type PrometheusSink struct {
	namespace string
	reg       prometheus.Registerer

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
}

// Name returns prometheus.
func (p *PrometheusSink) Name() string {
	return "prometheus"
}

// Report reports a record.
func (p *PrometheusSink) Report(rec Record, _ ...Option) error {
	labels := make(prometheus.Labels, len(rec.Dimensions))
	names := make([]string, 0, len(rec.Dimensions))
	for _, d := range rec.Dimensions {
		n := promName(d.Name)
		labels[n] = d.Value
		names = append(names, n)
	}
	for _, m := range rec.Samples {
		name := m.Name
		if rec.Name != "" {
			name = rec.Name + "_" + name
		}
		name = promName(name)
		switch m.Policy {
		case PolicySUM:
			if m.Value < 0 {
				return fmt.Errorf("counter %s decreased by %v", name, m.Value)
			}
			vec, err := p.counter(name, names)
			if err != nil {
				return err
			}
			c, err := vec.GetMetricWith(labels)
			if err != nil {
				return fmt.Errorf("counter %s: %w", name, err)
			}
			c.Add(m.Value)
		case PolicySET:
			vec, err := p.gauge(name, names)
			if err != nil {
				return err
			}
			g, err := vec.GetMetricWith(labels)
			if err != nil {
				return fmt.Errorf("gauge %s: %w", name, err)
			}
			g.Set(m.Value)
		default:
			return fmt.Errorf("policy %d of %s is not supported", m.Policy, name)
		}
	}
	return nil
}

func (p *PrometheusSink) counter(name string, labels []string) (*prometheus.CounterVec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.counters[name]; ok {
		return c, nil
	}
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: p.namespace,
		Name:      name,
		Help:      "memq counter " + name,
	}, labels)
	if err := p.reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		if c, ok = are.ExistingCollector.(*prometheus.CounterVec); !ok {
			return nil, err
		}
	}
	p.counters[name] = c
	return c, nil
}

func (p *PrometheusSink) gauge(name string, labels []string) (*prometheus.GaugeVec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if g, ok := p.gauges[name]; ok {
		return g, nil
	}
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: p.namespace,
		Name:      name,
		Help:      "memq gauge " + name,
	}, labels)
	if err := p.reg.Register(g); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		if g, ok = are.ExistingCollector.(*prometheus.GaugeVec); !ok {
			return nil, err
		}
	}
	p.gauges[name] = g
	return g, nil
}

func promName(s string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(s)
}
