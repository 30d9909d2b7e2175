package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Admission/discharge throughput
	AdmissionsTotal   prometheus.Counter
	DischargesTotal   prometheus.Counter
	AdmissionFailures *prometheus.CounterVec
	DischargeFailures prometheus.Counter

	// Occupancy state per room type
	OccupiedRooms  *prometheus.GaugeVec
	AvailableRooms *prometheus.GaugeVec

	// Persistence
	PersistsTotal   prometheus.Counter
	PersistFailures prometheus.Counter
	PersistLatency  prometheus.Histogram
}

// New creates and registers all application metrics against reg. Tests
// pass a fresh prometheus.NewRegistry to avoid duplicate registration.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AdmissionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Total number of successful patient admissions",
		}),
		DischargesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discharges_total",
			Help:      "Total number of successful patient discharges",
		}),
		AdmissionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_failures_total",
			Help:      "Total number of rejected admissions",
		}, []string{"reason"}),
		DischargeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discharge_failures_total",
			Help:      "Total number of rejected discharges",
		}),
		OccupiedRooms: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "occupied_rooms",
			Help:      "Current number of occupied rooms per room type",
		}, []string{"room_type"}),
		AvailableRooms: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "available_rooms",
			Help:      "Current number of available rooms per room type",
		}, []string{"room_type"}),
		PersistsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persists_total",
			Help:      "Total number of state writes to the persistence store",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Total number of failed state writes",
		}),
		PersistLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing state to the persistence store",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
}
