package progress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pointsCredited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ceritaku_points_credited_total",
			Help: "Points credited, by reason.",
		},
		[]string{"reason"},
	)

	pointsDebited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ceritaku_points_debited_total",
		Help: "Points spent on rewards.",
	})

	pointsBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ceritaku_points_balance",
		Help: "Current point balance.",
	})

	unlockAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ceritaku_reward_unlock_attempts_total",
			Help: "Reward unlock attempts by outcome.",
		},
		[]string{"status"},
	)

	storiesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ceritaku_stories_added_total",
		Help: "Stories added to the library.",
	})

	questionsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ceritaku_questions_added_total",
		Help: "Questions answered and stored.",
	})
)
