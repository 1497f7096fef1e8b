// Package metrics defines the Prometheus collectors this forester exposes
// in addition to the WorkReport stream (spec.md §7 EXPANSION). Every
// collector is purely additive local observability; nothing in the core
// reads these values back.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the forester's Prometheus instruments.
type Collector struct {
	itemsProcessed   *prometheus.CounterVec
	batchesSubmitted prometheus.Counter
	batchRetries     prometheus.Counter
	rollovers        prometheus.Counter
	submitDuration   prometheus.Histogram
}

// NewCollector creates and registers a Collector against reg. Passing a
// fresh prometheus.NewRegistry() keeps tests isolated from the global
// default registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		itemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forester_work_items_processed_total",
			Help: "Work items successfully confirmed, by epoch.",
		}, []string{"epoch"}),
		batchesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forester_batches_submitted_total",
			Help: "Transaction batches successfully confirmed.",
		}),
		batchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forester_batch_retries_total",
			Help: "Transaction batch submission retries.",
		}),
		rollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forester_rollovers_total",
			Help: "Tree rollovers performed.",
		}),
		submitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forester_transaction_submit_seconds",
			Help:    "Wall-clock time to sign, submit, and confirm one transaction batch.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.itemsProcessed, c.batchesSubmitted, c.batchRetries, c.rollovers, c.submitDuration)
	return c
}

// ItemsProcessed records n newly confirmed work items for epoch.
func (c *Collector) ItemsProcessed(epoch uint64, n int) {
	c.itemsProcessed.WithLabelValues(strconv.FormatUint(epoch, 10)).Add(float64(n))
}

// BatchSubmitted records one successfully confirmed transaction batch.
func (c *Collector) BatchSubmitted() { c.batchesSubmitted.Inc() }

// BatchRetried records one retry of a transaction batch.
func (c *Collector) BatchRetried() { c.batchRetries.Inc() }

// Rollover records one completed tree rollover.
func (c *Collector) Rollover() { c.rollovers.Inc() }

// ObserveSubmitSeconds records the duration of one submit-and-confirm call.
func (c *Collector) ObserveSubmitSeconds(seconds float64) { c.submitDuration.Observe(seconds) }
