// Package obs содержит метрики Prometheus сервиса приёма заказов.
package obs

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics объединяет доменные метрики сервиса.
type Metrics struct {
	OrdersSubmitted   prometheus.Counter
	OrdersRejected    *prometheus.CounterVec
	OrderGrandTotal   prometheus.Histogram
	CatalogSyncs      *prometheus.CounterVec
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg. Если reg равен nil, метрики не регистрируются.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		OrdersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Number of orders accepted and stored.",
		}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Number of rejected order submissions by reason.",
		}, []string{"reason"}),
		OrderGrandTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_grand_total",
			Help:      "Grand total of accepted orders.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		CatalogSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_syncs_total",
			Help:      "Catalog synchronisation attempts by result.",
		}, []string{"result"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Handled HTTP requests by method and status.",
		}, []string{"method", "status"}),
	}

	if reg == nil {
		return m, nil
	}

	regs := []struct {
		c     prometheus.Collector
		reuse func(prometheus.Collector)
	}{
		{m.OrdersSubmitted, func(c prometheus.Collector) { m.OrdersSubmitted = c.(prometheus.Counter) }},
		{m.OrdersRejected, func(c prometheus.Collector) { m.OrdersRejected = c.(*prometheus.CounterVec) }},
		{m.OrderGrandTotal, func(c prometheus.Collector) { m.OrderGrandTotal = c.(prometheus.Histogram) }},
		{m.CatalogSyncs, func(c prometheus.Collector) { m.CatalogSyncs = c.(*prometheus.CounterVec) }},
		{m.HTTPRequestsTotal, func(c prometheus.Collector) { m.HTTPRequestsTotal = c.(*prometheus.CounterVec) }},
	}
	for _, r := range regs {
		if err := reg.Register(r.c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				r.reuse(are.ExistingCollector)
				continue
			}
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	return m, nil
}

// Discard возвращает незарегистрированные метрики для тестов.
func Discard() *Metrics {
	m, _ := NewMetrics("", nil)
	return m
}
