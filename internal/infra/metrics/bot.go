package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		dialogsStartedTotal,
		listingsPublishedTotal,
		publishFailedTotal,
		gateChecksTotal,
		gateBlockedTotal,
		broadcastSendsTotal,
		rateLimitRetriesTotal,
		commandsReceivedTotal,
	)
}

var (
	dialogsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogs_started_total",
			Help: "Listing dialogs started, by flow kind.",
		},
		[]string{"flow"},
	)

	listingsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_published_total",
			Help: "Listings broadcast to at least one target, by flow kind.",
		},
		[]string{"flow"},
	)

	publishFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "publish_failed_total",
			Help: "Confirmed listings that reached no target at all.",
		},
	)

	gateChecksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gate_checks_total",
			Help: "Membership gate evaluations (confirmations and re-checks).",
		},
	)

	gateBlockedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gate_blocked_total",
			Help: "Gate evaluations that found at least one missing channel.",
		},
	)

	broadcastSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_sends_total",
			Help: "Per-target broadcast send attempts, by outcome.",
		},
		[]string{"outcome"}, // ok | failed | skipped
	)

	rateLimitRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_rate_limit_retries_total",
			Help: "Sends retried after a rate-limit signal.",
		},
	)

	commandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming commands and callbacks from users.",
		},
		[]string{"command"},
	)
)

func IncDialogStarted(flow string) { dialogsStartedTotal.WithLabelValues(flow).Inc() }

func IncListingPublished(flow string) { listingsPublishedTotal.WithLabelValues(flow).Inc() }

func IncPublishFailed() { publishFailedTotal.Inc() }

func IncGateCheck() { gateChecksTotal.Inc() }

func IncGateBlocked() { gateBlockedTotal.Inc() }

func IncBroadcastSend(outcome string) { broadcastSendsTotal.WithLabelValues(outcome).Inc() }

func IncRateLimitRetry() { rateLimitRetriesTotal.Inc() }

func IncCommandReceived(command string) { commandsReceivedTotal.WithLabelValues(command).Inc() }
