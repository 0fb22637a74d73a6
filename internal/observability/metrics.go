package observability

import (
	"context"
	"sync"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/fix"
	"github.com/ismaiel54/fix-order-client/internal/order"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts session traffic and order transitions. It satisfies both
// session.MessageObserver and order.Observer.
type Metrics struct {
	registry *prometheus.Registry

	sent         *prometheus.CounterVec
	received     *prometheus.CounterVec
	decodeErrors prometheus.Counter
	transitions  *prometheus.CounterVec
	waits        *prometheus.SummaryVec
	sessionUp    prometheus.Gauge

	mu      sync.Mutex
	waiting map[string]time.Time
}

// NewMetrics creates the metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fix_messages_sent_total",
			Help: "Outbound messages by type",
		}, []string{"msg_type"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fix_messages_received_total",
			Help: "Decoded inbound messages by type",
		}, []string{"msg_type"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fix_decode_errors_total",
			Help: "Inbound messages the codec rejected",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fix_order_transitions_total",
			Help: "Order state changes by target state",
		}, []string{"state"}),
		waits: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "fix_order_wait_seconds",
			Help:       "Time spent waiting for the counterparty, by phase and result",
			AgeBuckets: 1,
		}, []string{"phase", "result"}),
		sessionUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fix_session_up",
			Help: "1 while a logon is confirmed",
		}),
		waiting: make(map[string]time.Time),
	}
	m.registry.MustRegister(m.sent, m.received, m.decodeErrors, m.transitions, m.waits, m.sessionUp)
	return m
}

// Registry exposes the metrics for scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MessageSent counts one outbound message.
func (m *Metrics) MessageSent(msgType string) {
	m.sent.WithLabelValues(fix.MsgTypeName(msgType)).Inc()
}

// MessageReceived counts one decoded inbound message.
func (m *Metrics) MessageReceived(msgType string) {
	m.received.WithLabelValues(fix.MsgTypeName(msgType)).Inc()
}

// DecodeFailed counts one message the codec rejected.
func (m *Metrics) DecodeFailed() {
	m.decodeErrors.Inc()
}

// SetSessionUp sets fix_session_up.
func (m *Metrics) SetSessionUp(up bool) {
	if up {
		m.sessionUp.Set(1)
		return
	}
	m.sessionUp.Set(0)
}

// OrderTransitioned counts t and times the two correlation waits.
func (m *Metrics) OrderTransitioned(_ context.Context, t order.Transition) {
	m.transitions.WithLabelValues(t.To.String()).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	switch t.To {
	case order.StateAwaitingConfirmation, order.StateCancelRequested:
		m.waiting[t.ClientOrderID] = t.At
	case order.StateConfirmedNew, order.StateCancelled, order.StateTimedOut:
		start, ok := m.waiting[t.ClientOrderID]
		if !ok {
			return
		}
		delete(m.waiting, t.ClientOrderID)
		phase := "confirm"
		if t.From == order.StateCancelRequested {
			phase = "cancel"
		}
		m.waits.WithLabelValues(phase, t.To.String()).Observe(t.At.Sub(start).Seconds())
	}
}
