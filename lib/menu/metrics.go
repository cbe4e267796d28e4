// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments a Client with Prometheus collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	layoutRequests  prometheus.Counter
	layoutStale     prometheus.Counter
	propertyFetches *prometheus.CounterVec
	rebuilds        *prometheus.CounterVec
	collected       prometheus.Counter
	remoteErrors    *prometheus.CounterVec
	revision        prometheus.Gauge
	renderedItems   prometheus.Gauge
}

// Fetch results recorded by menumirror_property_fetches_total.
const (
	fetchCommitted = "committed"
	fetchEmpty     = "empty"
	fetchFailed    = "failed"
	fetchDiscarded = "discarded"
)

// Rebuild modes recorded by menumirror_rebuilds_total.
const (
	rebuildSubtree = "subtree"
	rebuildItem    = "replace"
)

// NewMetrics creates the collectors and registers them on registerer.
// Registering a second set on the same registerer fails.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		layoutRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "menumirror_layout_requests_total",
			Help: "GetLayout calls issued.",
		}),
		layoutStale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "menumirror_layout_stale_total",
			Help: "Layout responses discarded because their revision was not newer than the applied one.",
		}),
		propertyFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menumirror_property_fetches_total",
			Help: "Per-item property fetch outcomes.",
		}, []string{"result"}),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menumirror_rebuilds_total",
			Help: "Reconciler passes by mode (subtree or replace).",
		}, []string{"mode"}),
		collected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "menumirror_collected_items_total",
			Help: "Items removed by the mark-and-sweep collector.",
		}),
		remoteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menumirror_remote_errors_total",
			Help: "Failed remote calls by method.",
		}, []string{"method"}),
		revision: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "menumirror_layout_revision",
			Help: "Revision of the last applied layout.",
		}),
		renderedItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "menumirror_rendered_items",
			Help: "Items that currently have a rendered node.",
		}),
	}

	collectors := []prometheus.Collector{
		metrics.layoutRequests,
		metrics.layoutStale,
		metrics.propertyFetches,
		metrics.rebuilds,
		metrics.collected,
		metrics.remoteErrors,
		metrics.revision,
		metrics.renderedItems,
	}
	var errs []error
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("registering menu metrics: %w", errors.Join(errs...))
	}
	return metrics, nil
}

func (metrics *Metrics) layoutRequested() {
	if metrics != nil {
		metrics.layoutRequests.Inc()
	}
}

func (metrics *Metrics) layoutDiscarded() {
	if metrics != nil {
		metrics.layoutStale.Inc()
	}
}

func (metrics *Metrics) layoutApplied(revision uint32) {
	if metrics != nil {
		metrics.revision.Set(float64(revision))
	}
}

func (metrics *Metrics) propertiesFetched(result string, count int) {
	if metrics != nil && count > 0 {
		metrics.propertyFetches.WithLabelValues(result).Add(float64(count))
	}
}

func (metrics *Metrics) rebuilt(mode string) {
	if metrics != nil {
		metrics.rebuilds.WithLabelValues(mode).Inc()
	}
}

func (metrics *Metrics) itemsCollected(count int) {
	if metrics != nil && count > 0 {
		metrics.collected.Add(float64(count))
	}
}

func (metrics *Metrics) remoteFailed(method string) {
	if metrics != nil {
		metrics.remoteErrors.WithLabelValues(method).Inc()
	}
}

func (metrics *Metrics) rendered(count int) {
	if metrics != nil {
		metrics.renderedItems.Set(float64(count))
	}
}
