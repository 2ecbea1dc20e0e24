package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContainersTotal is the Agent's current container count, refreshed on
	// every Inventory Store sync pass.
	ContainersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docktail_containers_total",
		Help: "Total number of containers known to the Inventory Store.",
	})
	// AgentsConnected is the Cluster gateway's count of agents the Agent
	// Pool's health monitor currently considers reachable (not Unhealthy).
	AgentsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docktail_agents_connected",
		Help: "Number of pooled agents not currently marked unhealthy.",
	})
	// AgentsInPool is the Cluster gateway's Agent Pool size, broken down by
	// source (static, discovered, registered).
	AgentsInPool = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "docktail_agents_in_pool",
		Help: "Number of agents in the pool by source.",
	}, []string{"source"})
	// ParsedLinesTotal counts log lines the Parser Subsystem has classified,
	// by detected format -- the per-format histogram SPEC_FULL.md's
	// SUPPLEMENTED FEATURES section calls for.
	ParsedLinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docktail_parsed_lines_total",
		Help: "Total number of log lines parsed, by detected format.",
	}, []string{"format"})
	// ParseDuration is the per-line parse latency, by detected format.
	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docktail_parse_duration_seconds",
		Help:    "Duration of per-line parsing, by detected format.",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})
	// HealthChecksTotal counts Agent health evaluations by resulting status.
	HealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docktail_health_checks_total",
		Help: "Total number of health evaluations, by resulting status.",
	}, []string{"status"})
	// SubscriptionsActive mirrors internal/submetrics' per-agent active shell
	// bridge count.
	SubscriptionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "docktail_shell_subscriptions_active",
		Help: "Number of open shell bridge subscriptions, by agent.",
	}, []string{"agent"})
	// SubscriptionsTotal counts every shell bridge subscription ever started.
	SubscriptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docktail_shell_subscriptions_total",
		Help: "Total number of shell bridge subscriptions started.",
	})
	// SubscriptionMessagesTotal counts frames relayed through shell bridges.
	SubscriptionMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docktail_shell_subscription_messages_total",
		Help: "Total number of frames relayed through shell bridges.",
	})
	// SubscriptionBytesTotal counts payload bytes relayed through shell bridges.
	SubscriptionBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docktail_shell_subscription_bytes_total",
		Help: "Total number of payload bytes relayed through shell bridges.",
	})
	// SubscriptionsFailedTotal counts shell bridge subscriptions that ended
	// in failure (agent unavailable, exec create failure, stream error).
	SubscriptionsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docktail_shell_subscriptions_failed_total",
		Help: "Total number of shell bridge subscriptions that failed.",
	})
)
