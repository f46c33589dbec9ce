package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the game engine and its storage tiers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	DrawsTotal      prometheus.Counter
	ResetsTotal     prometheus.Counter
	MarksTotal      prometheus.Counter
	BingosTotal     prometheus.Counter
	DrawnNumbers    prometheus.Gauge
	Cards           prometheus.Gauge
	PersistFailures *prometheus.CounterVec
	WriteDuration   *prometheus.HistogramVec
	Subscribers     prometheus.Gauge
	AssetCacheHits  *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		DrawsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bingo_draws_total",
			Help: "Total number of committed draws",
		}),
		ResetsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bingo_resets_total",
			Help: "Total number of game resets",
		}),
		MarksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bingo_card_marks_total",
			Help: "Total number of card cell toggles",
		}),
		BingosTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bingo_bingos_total",
			Help: "Total number of times a card reached bingo",
		}),
		DrawnNumbers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bingo_drawn_numbers",
			Help: "Numbers drawn in the current game",
		}),
		Cards: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bingo_cards",
			Help: "Active bingo cards",
		}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bingo_persist_failures_total",
			Help: "Storage tier failures by tier and operation",
		}, []string{"tier", "op"}),
		WriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bingo_persist_write_duration_seconds",
			Help:    "Duration of snapshot writes by tier",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"tier"}),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bingo_subscribers",
			Help: "Active state change subscribers",
		}),
		AssetCacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bingo_asset_cache_requests_total",
			Help: "Asset requests by outcome (hit, miss, fallback, error)",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementDraws() {
	if m == nil {
		return
	}
	m.DrawsTotal.Inc()
}

func (m *Metrics) IncrementResets() {
	if m == nil {
		return
	}
	m.ResetsTotal.Inc()
}

func (m *Metrics) IncrementMarks() {
	if m == nil {
		return
	}
	m.MarksTotal.Inc()
}

func (m *Metrics) IncrementBingos() {
	if m == nil {
		return
	}
	m.BingosTotal.Inc()
}

// SetGameSize records the drawn history length and card count.
func (m *Metrics) SetGameSize(drawn, cards int) {
	if m == nil {
		return
	}
	m.DrawnNumbers.Set(float64(drawn))
	m.Cards.Set(float64(cards))
}

func (m *Metrics) IncrementPersistFailure(tier, op string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(tier, op).Inc()
}

// ObserveWrite records the duration of a snapshot write.
// Call with time.Now() at the start of the write.
func (m *Metrics) ObserveWrite(tier string, start time.Time) {
	if m == nil {
		return
	}
	m.WriteDuration.WithLabelValues(tier).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddSubscribers(delta int) {
	if m == nil {
		return
	}
	m.Subscribers.Add(float64(delta))
}

func (m *Metrics) IncrementAssetRequest(outcome string) {
	if m == nil {
		return
	}
	m.AssetCacheHits.WithLabelValues(outcome).Inc()
}
