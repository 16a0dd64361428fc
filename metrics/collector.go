// Package metrics exposes planner statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "lucid"
	subsystem = "planner"
)

// PassStats is what one executor pass reports.
type PassStats struct {
	Race             string
	Plan             string
	Seconds          float64
	Commands         int
	SatisfiedSteps   int
	TotalSteps       int
	ReservedMinerals int
	ReservedVespene  int
	PendingUnits     int
	RulesFired       []string
}

// Recorder is the interface the agent records through. A nil Recorder is
// never passed; use Nop when metrics are disabled.
type Recorder interface {
	RecordPass(s PassStats)
	RecordEvent(kind string)
	RecordPlanSwitch(race, from, to string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordPass(PassStats)            {}
func (Nop) RecordEvent(string)              {}
func (Nop) RecordPlanSwitch(_, _, _ string) {}

// Collector holds every planner metric.
type Collector struct {
	passDuration *prometheus.HistogramVec
	passesTotal  *prometheus.CounterVec
	commands     *prometheus.CounterVec
	rulesFired   *prometheus.CounterVec
	events       *prometheus.CounterVec
	planSwitches *prometheus.CounterVec

	stepsSatisfied *prometheus.GaugeVec
	stepsTotal     *prometheus.GaugeVec
	reserved       *prometheus.GaugeVec
	pendingUnits   *prometheus.GaugeVec
}

func NewCollector() *Collector {
	return &Collector{
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pass_duration_seconds",
				Help:      "Time spent in one executor pass",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
			},
			[]string{"race"},
		),
		passesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "passes_total",
				Help:      "Executor passes by race and plan",
			},
			[]string{"race", "plan"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commands_total",
				Help:      "Unit commands emitted",
			},
			[]string{"race"},
		),
		rulesFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "macro_rules_fired_total",
				Help:      "Macro rules fired by name",
			},
			[]string{"rule"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "game_events_total",
				Help:      "Game events detected between snapshots",
			},
			[]string{"kind"},
		),
		planSwitches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_switches_total",
				Help:      "Build order changes made by the strategist",
			},
			[]string{"race", "to"},
		),
		stepsSatisfied: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "steps_satisfied",
				Help:      "Build order steps met on the last pass",
			},
			[]string{"race", "plan"},
		),
		stepsTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "steps",
				Help:      "Build order length",
			},
			[]string{"race", "plan"},
		),
		reserved: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reserved_resources",
				Help:      "Resources earmarked after the last pass",
			},
			[]string{"race", "resource"},
		),
		pendingUnits: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pending_units",
				Help:      "Units with commands the game has not yet shown",
			},
			[]string{"race"},
		),
	}
}

// Register adds every metric to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{
		c.passDuration,
		c.passesTotal,
		c.commands,
		c.rulesFired,
		c.events,
		c.planSwitches,
		c.stepsSatisfied,
		c.stepsTotal,
		c.reserved,
		c.pendingUnits,
	} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) RecordPass(s PassStats) {
	c.passDuration.WithLabelValues(s.Race).Observe(s.Seconds)
	c.passesTotal.WithLabelValues(s.Race, s.Plan).Inc()
	c.commands.WithLabelValues(s.Race).Add(float64(s.Commands))
	for _, r := range s.RulesFired {
		c.rulesFired.WithLabelValues(r).Inc()
	}
	c.stepsSatisfied.WithLabelValues(s.Race, s.Plan).Set(float64(s.SatisfiedSteps))
	c.stepsTotal.WithLabelValues(s.Race, s.Plan).Set(float64(s.TotalSteps))
	c.reserved.WithLabelValues(s.Race, "minerals").Set(float64(s.ReservedMinerals))
	c.reserved.WithLabelValues(s.Race, "vespene").Set(float64(s.ReservedVespene))
	c.pendingUnits.WithLabelValues(s.Race).Set(float64(s.PendingUnits))
}

func (c *Collector) RecordEvent(kind string) {
	c.events.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordPlanSwitch(race, _, to string) {
	c.planSwitches.WithLabelValues(race, to).Inc()
}
