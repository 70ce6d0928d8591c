package metrics

import (
	"time"

	"github.com/limaJavier/timetabling/pkg/optimizer"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector records optimizer progress in its own registry. It implements optimizer.Observer; a nil Collector
// records nothing
type Collector struct {
	registry *prometheus.Registry

	repairIterations prometheus.Counter
	repairImproved   prometheus.Counter
	repairCost       prometheus.Gauge
	sigma            prometheus.Gauge
	adaptations      prometheus.Counter
	annealIterations *prometheus.CounterVec
	annealCost       prometheus.Gauge
	temperature      prometheus.Gauge
	phaseDuration    *prometheus.HistogramVec
	feasible         prometheus.Gauge
}

var _ optimizer.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	collector := &Collector{
		registry: registry,
		repairIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_repair_iterations_total",
			Help: "Total number of repair iterations",
		}),
		repairImproved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_repair_improvements_total",
			Help: "Repair iterations that lowered the hard-constraint cost",
		}),
		repairCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_repair_cost",
			Help: "Current hard-constraint cost",
		}),
		sigma: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_repair_sigma",
			Help: "Current relocation probability of the repair loop",
		}),
		adaptations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_repair_sigma_adaptations_total",
			Help: "Total number of step-size adaptations",
		}),
		annealIterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_anneal_iterations_total",
			Help: "Total number of annealing iterations by outcome",
		}, []string{"outcome"}),
		annealCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_anneal_cost",
			Help: "Current soft-constraint cost",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_anneal_temperature",
			Help: "Current annealing temperature",
		}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timetable_phase_duration_seconds",
			Help:    "Duration of optimizer phases in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		feasible: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_feasible",
			Help: "Whether the last timetable satisfies every hard constraint (1) or not (0)",
		}),
	}

	registry.MustRegister(
		collector.repairIterations,
		collector.repairImproved,
		collector.repairCost,
		collector.sigma,
		collector.adaptations,
		collector.annealIterations,
		collector.annealCost,
		collector.temperature,
		collector.phaseDuration,
		collector.feasible,
	)
	return collector
}

func (collector *Collector) Registry() *prometheus.Registry {
	return collector.registry
}

func (collector *Collector) RepairIteration(cost int, sigma float64, improved bool) {
	if collector == nil {
		return
	}
	collector.repairIterations.Inc()
	if improved {
		collector.repairImproved.Inc()
	}
	collector.repairCost.Set(float64(cost))
	collector.sigma.Set(sigma)
}

func (collector *Collector) SigmaAdapted(sigma float64) {
	if collector == nil {
		return
	}
	collector.adaptations.Inc()
	collector.sigma.Set(sigma)
}

func (collector *Collector) AnnealIteration(cost, temperature float64, accepted bool) {
	if collector == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	collector.annealIterations.WithLabelValues(outcome).Inc()
	collector.annealCost.Set(cost)
	collector.temperature.Set(temperature)
}

// ObserveResult records phase durations and the final costs of a strategy run
func (collector *Collector) ObserveResult(result optimizer.Result, feasible bool) {
	if collector == nil {
		return
	}
	if result.Repair != nil {
		collector.phaseDuration.WithLabelValues("repair").Observe(result.Repair.Elapsed.Seconds())
		collector.repairCost.Set(float64(result.Repair.Cost))
	}
	if result.Anneal != nil {
		collector.phaseDuration.WithLabelValues("anneal").Observe(result.Anneal.Elapsed.Seconds())
		collector.annealCost.Set(result.Anneal.Cost)
	}
	collector.feasible.Set(0)
	if feasible {
		collector.feasible.Set(1)
	}
}

// ObservePhase records the duration of a phase outside the optimizer, such as loading or initialization
func (collector *Collector) ObservePhase(phase string, duration time.Duration) {
	if collector == nil {
		return
	}
	collector.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// WriteToTextfile writes every metric in the text exposition format, e.g. for the node exporter's textfile collector
func (collector *Collector) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, collector.registry)
}
