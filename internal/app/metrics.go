package app

import (
	metrics "github.com/rcrowley/go-metrics"
)

const (
	MetricTxDelivered   = "tx.delivered"
	MetricTxRejected    = "tx.rejected"
	MetricGameCreated   = "game.created"
	MetricGameCompleted = "game.completed"
	MetricGameCancelled = "game.cancelled"
	MetricPayoutTotal   = "payout.total"
	MetricBlockHeight   = "block.height"
)

// appMetrics are node-local counters. They are not part of the app hash.
type appMetrics struct {
	registry metrics.Registry

	txDelivered   metrics.Counter
	txRejected    metrics.Counter
	gameCreated   metrics.Counter
	gameCompleted metrics.Counter
	gameCancelled metrics.Counter
	payoutTotal   metrics.Counter
	blockHeight   metrics.Gauge
}

func newAppMetrics() *appMetrics {
	r := metrics.NewRegistry()
	return &appMetrics{
		registry:      r,
		txDelivered:   metrics.NewRegisteredCounter(MetricTxDelivered, r),
		txRejected:    metrics.NewRegisteredCounter(MetricTxRejected, r),
		gameCreated:   metrics.NewRegisteredCounter(MetricGameCreated, r),
		gameCompleted: metrics.NewRegisteredCounter(MetricGameCompleted, r),
		gameCancelled: metrics.NewRegisteredCounter(MetricGameCancelled, r),
		payoutTotal:   metrics.NewRegisteredCounter(MetricPayoutTotal, r),
		blockHeight:   metrics.NewRegisteredGauge(MetricBlockHeight, r),
	}
}

func (m *appMetrics) snapshot() map[string]int64 {
	out := map[string]int64{}
	m.registry.Each(func(name string, v interface{}) {
		switch v := v.(type) {
		case metrics.Counter:
			out[name] = v.Count()
		case metrics.Gauge:
			out[name] = v.Value()
		}
	})
	return out
}
