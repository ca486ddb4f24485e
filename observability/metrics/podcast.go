package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PodcastMetrics aggregates the Prometheus collectors for the monetization
// ledger. All observe methods are nil-safe so instrumentation can be wired
// optionally.
type PodcastMetrics struct {
	podcastsCreated   prometheus.Counter
	deactivations     prometheus.Counter
	subscriptionsSold prometheus.Counter
	salesVolume       prometheus.Counter
	payouts           prometheus.Counter
	payoutVolume      prometheus.Counter
	platformPool      prometheus.Gauge
	feeRateBps        prometheus.Gauge
}

var (
	podcastOnce     sync.Once
	podcastRegistry *PodcastMetrics
)

// Podcast returns the process-wide ledger metrics, registering the collectors
// on first use.
func Podcast() *PodcastMetrics {
	podcastOnce.Do(func() {
		podcastRegistry = &PodcastMetrics{
			podcastsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "podledger_podcasts_created_total",
				Help: "Count of podcasts registered.",
			}),
			deactivations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "podledger_podcasts_deactivated_total",
				Help: "Count of podcasts deactivated.",
			}),
			subscriptionsSold: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "podledger_subscriptions_sold_total",
				Help: "Count of completed subscription purchases.",
			}),
			salesVolume: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "podledger_sales_volume_total",
				Help: "Cumulative amount charged across all purchases.",
			}),
			payouts: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "podledger_payouts_total",
				Help: "Count of creator withdrawals settled.",
			}),
			payoutVolume: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "podledger_payout_volume_total",
				Help: "Cumulative amount withdrawn by creators.",
			}),
			platformPool: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "podledger_platform_pool",
				Help: "Platform fee pool currently held by the vault.",
			}),
			feeRateBps: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "podledger_fee_rate_bps",
				Help: "Platform fee rate in force, in basis points.",
			}),
		}
		prometheus.MustRegister(
			podcastRegistry.podcastsCreated,
			podcastRegistry.deactivations,
			podcastRegistry.subscriptionsSold,
			podcastRegistry.salesVolume,
			podcastRegistry.payouts,
			podcastRegistry.payoutVolume,
			podcastRegistry.platformPool,
			podcastRegistry.feeRateBps,
		)
	})
	return podcastRegistry
}

// ObservePodcastCreated records a successful registration.
func (m *PodcastMetrics) ObservePodcastCreated() {
	if m == nil {
		return
	}
	m.podcastsCreated.Inc()
}

// ObserveDeactivation records a podcast being switched off.
func (m *PodcastMetrics) ObserveDeactivation() {
	if m == nil {
		return
	}
	m.deactivations.Inc()
}

// ObserveSale records a completed purchase and the amount charged.
func (m *PodcastMetrics) ObserveSale(cost float64) {
	if m == nil {
		return
	}
	m.subscriptionsSold.Inc()
	if cost > 0 {
		m.salesVolume.Add(cost)
	}
}

// ObservePayout records a settled creator withdrawal.
func (m *PodcastMetrics) ObservePayout(amount float64) {
	if m == nil {
		return
	}
	m.payouts.Inc()
	if amount > 0 {
		m.payoutVolume.Add(amount)
	}
}

// SetPlatformPool publishes the derived platform pool.
func (m *PodcastMetrics) SetPlatformPool(pool float64) {
	if m == nil {
		return
	}
	m.platformPool.Set(pool)
}

// SetFeeRate publishes the fee rate in force.
func (m *PodcastMetrics) SetFeeRate(bps uint32) {
	if m == nil {
		return
	}
	m.feeRateBps.Set(float64(bps))
}
