// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "game_escrow"

// ValueLocked is the read side of the engine the TVL collector samples.
type ValueLocked interface {
	TotalValueLocked() escrow.Amount
	TokenValueLocked(token escrow.TokenID) escrow.Amount
	MaxTVLLimit() escrow.Amount
	GetSupportedTokens() []escrow.TokenID
	Paused() bool
}

// Sink turns engine events into Prometheus counters. It implements escrow.EventSink.
type Sink struct {
	GamesCreated   *prometheus.CounterVec
	PlayersJoined  prometheus.Counter
	GamesStarted   prometheus.Counter
	GamesFinished  *prometheus.CounterVec
	GamesCancelled *prometheus.CounterVec
	Payouts        *prometheus.CounterVec
	AdminActions   *prometheus.CounterVec
}

func NewSink() *Sink {
	return &Sink{
		GamesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_created_total",
				Help:      "Total number of games created",
			},
			[]string{"token", "mode"},
		),
		PlayersJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_joined_total",
			Help:      "Total number of successful joins",
		}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Total number of games that filled up and started",
		}),
		GamesFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_finished_total",
				Help:      "Total number of settled games",
			},
			[]string{"token"},
		),
		GamesCancelled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_cancelled_total",
				Help:      "Total number of cancelled games by reason",
			},
			[]string{"token", "reason"},
		),
		Payouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payouts_total",
				Help:      "Token units credited at settlement or refund, by recipient class",
			},
			[]string{"token", "class"},
		),
		AdminActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admin_actions_total",
				Help:      "Total number of administrative and emergency actions",
			},
			[]string{"action"},
		),
	}
}

// Collectors lists everything the sink exposes, for registry.MustRegister.
func (s *Sink) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		s.GamesCreated, s.PlayersJoined, s.GamesStarted, s.GamesFinished,
		s.GamesCancelled, s.Payouts, s.AdminActions,
	}
}

func (s *Sink) Emit(ev escrow.Event) {
	switch e := ev.(type) {
	case escrow.GameCreated:
		s.GamesCreated.WithLabelValues(string(e.Token), e.Mode.String()).Inc()
	case escrow.PlayerJoined:
		s.PlayersJoined.Inc()
	case escrow.GameStarted:
		s.GamesStarted.Inc()
	case escrow.GameFinished:
		token := string(e.Token)
		s.GamesFinished.WithLabelValues(token).Inc()
		s.Payouts.WithLabelValues(token, escrow.ClassPlayer.String()).Add(float64(e.PerWinner) * float64(len(e.Winners)))
		s.Payouts.WithLabelValues(token, escrow.ClassCreator.String()).Add(float64(e.CreatorCut))
		s.Payouts.WithLabelValues(token, escrow.ClassPlatform.String()).Add(float64(e.PlatformCut + e.Dust))
	case escrow.GameCancelled:
		s.GamesCancelled.WithLabelValues(string(e.Token), e.Reason).Inc()
		s.Payouts.WithLabelValues(string(e.Token), "refund").Add(float64(e.Refunded))
	case escrow.EmergencyAction:
		s.AdminActions.WithLabelValues(e.Action).Inc()
	case escrow.TokenAdded, escrow.TokenRemoved, escrow.LimitsUpdated, escrow.RoleGranted, escrow.RoleRevoked:
		s.AdminActions.WithLabelValues(ev.EventName()).Inc()
	}
}

// TVLCollector samples value-locked gauges from the engine on every scrape.
type TVLCollector struct {
	source   ValueLocked
	total    *prometheus.Desc
	perToken *prometheus.Desc
	limit    *prometheus.Desc
	paused   *prometheus.Desc
}

func NewTVLCollector(source ValueLocked) *TVLCollector {
	return &TVLCollector{
		source: source,
		total: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "total_value_locked"),
			"Stake held across all non-terminal games", nil, nil),
		perToken: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "token_value_locked"),
			"Stake held per token", []string{"token"}, nil),
		limit: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "max_value_locked"),
			"Global value-locked cap", nil, nil),
		paused: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "paused"),
			"1 while the pause gate is closed", nil, nil),
	}
}

func (c *TVLCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.perToken
	ch <- c.limit
	ch <- c.paused
}

func (c *TVLCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(c.source.TotalValueLocked()))
	ch <- prometheus.MustNewConstMetric(c.limit, prometheus.GaugeValue, float64(c.source.MaxTVLLimit()))
	for _, t := range c.source.GetSupportedTokens() {
		ch <- prometheus.MustNewConstMetric(c.perToken, prometheus.GaugeValue, float64(c.source.TokenValueLocked(t)), string(t))
	}
	paused := 0.0
	if c.source.Paused() {
		paused = 1
	}
	ch <- prometheus.MustNewConstMetric(c.paused, prometheus.GaugeValue, paused)
}
