package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reputation module.
type Metrics struct {
	AwardsTotal  *prometheus.CounterVec
	BadgesTotal  prometheus.Counter
	ScoreClamped prometheus.Counter
}

// New creates a new Metrics instance with all reputation module metrics registered.
func New() *Metrics {
	return &Metrics{
		AwardsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "knowledgehub_reputation_awards_total",
			Help: "Total reputation awards by event type",
		}, []string{"event"}),
		BadgesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "knowledgehub_reputation_badges_total",
			Help: "Total badges unlocked",
		}),
		ScoreClamped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "knowledgehub_reputation_score_clamped_total",
			Help: "Times a score adjustment was clamped at zero",
		}),
	}
}
