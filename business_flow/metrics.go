package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Per-recipient dispatch outcomes partitioned by status (sent, skipped, failed)
	dispatchResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partyline_dispatch_results_total",
			Help: "Per-recipient dispatch outcomes",
		},
		[]string{"status"},
	)

	// Messages that went out but whose delivery log row could not be written
	dispatchLogFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "partyline_dispatch_log_failures_total",
			Help: "Sent messages whose delivery log write failed",
		},
	)

	// Provider status callbacks partitioned by outcome (applied, ignored, unknown)
	statusCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partyline_status_callbacks_total",
			Help: "Delivery status callbacks by reconciliation outcome",
		},
		[]string{"outcome"},
	)

	// Inbound provider messages partitioned by routing outcome
	inboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partyline_inbound_messages_total",
			Help: "Inbound messages by routing outcome",
		},
		[]string{"outcome"},
	)
)
