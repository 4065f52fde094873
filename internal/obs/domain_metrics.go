package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts quote computations by outcome.
	QuotesTotal *prometheus.CounterVec
	// ShipmentTransitionsTotal counts shipment lifecycle transitions by target state.
	ShipmentTransitionsTotal *prometheus.CounterVec
	// ShipmentNotificationsTotal counts enqueued status notification tasks.
	ShipmentNotificationsTotal *prometheus.CounterVec
	// QuoteLineItems tracks cart sizes of successfully priced quotes.
	QuoteLineItems prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of shipping quote computations by outcome.",
		}, []string{"result"})
		ShipmentTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipment_transitions_total",
			Help:      "Count of shipment lifecycle transitions by target state.",
		}, []string{"status"})
		ShipmentNotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipment_notifications_total",
			Help:      "Count of enqueued shipment status notification tasks.",
		}, []string{"status"})
		QuoteLineItems = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_line_items",
			Help:      "Distribution of line counts in priced quotes.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		})

		mustRegisterCollector(reg, QuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotesTotal = v
			}
		})
		mustRegisterCollector(reg, ShipmentTransitionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ShipmentTransitionsTotal = v
			}
		})
		mustRegisterCollector(reg, ShipmentNotificationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ShipmentNotificationsTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteLineItems, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				QuoteLineItems = v
			}
		})
	})
}

// ObserveQuote records a quote outcome. Safe to call before registration.
func ObserveQuote(result string) {
	if QuotesTotal == nil {
		return
	}
	QuotesTotal.WithLabelValues(result).Inc()
}

// ObserveQuoteSize records the number of lines in a priced quote. Safe to
// call before registration.
func ObserveQuoteSize(lines int) {
	if QuoteLineItems == nil {
		return
	}
	QuoteLineItems.Observe(float64(lines))
}

// ObserveShipmentTransition records a lifecycle transition. Safe to call
// before registration.
func ObserveShipmentTransition(status string) {
	if ShipmentTransitionsTotal == nil {
		return
	}
	ShipmentTransitionsTotal.WithLabelValues(status).Inc()
}

// ObserveShipmentNotification records an enqueued notification task. Safe to
// call before registration.
func ObserveShipmentNotification(status string) {
	if ShipmentNotificationsTotal == nil {
		return
	}
	ShipmentNotificationsTotal.WithLabelValues(status).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
