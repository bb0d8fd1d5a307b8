package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_movements_total",
		Help: "Ledger movements recorded, by type.",
	}, []string{"type"})

	ReadingsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farmops_readings_generated_total",
		Help: "Simulated sensor readings written.",
	})
)
