package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outbox-related Prometheus metrics. Defined in a standalone package to avoid
// import cycles between the sweeper and HTTP packages.

var (
	OutboxSweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_sweep_duration_ms",
		Help:    "Duración de cada pasada del sweeper en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})

	OutboxEmailsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_emails_sent_total",
		Help: "Emails reintentados con éxito por el sweeper",
	})

	OutboxEmailsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_emails_failed_total",
		Help: "Intentos de reenvío que terminaron en error",
	})

	OutboxEmailsQueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_emails_queued_total",
		Help: "Emails fallidos encolados en el outbox",
	})

	OutboxCleanupDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_cleanup_deleted_total",
		Help: "Registros terminales eliminados por retención",
	})

	OutboxPendingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_pending_emails",
		Help: "Registros PENDING al último muestreo de estadísticas",
	})

	OutboxFailedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_failed_emails",
		Help: "Registros FAILED al último muestreo de estadísticas",
	})
)

// RegisterOutbox registers the outbox metrics on the given registry (or default if nil).
func RegisterOutbox(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cs := []prometheus.Collector{
		OutboxSweepDuration,
		OutboxEmailsSent,
		OutboxEmailsFailed,
		OutboxEmailsQueued,
		OutboxCleanupDeleted,
		OutboxPendingGauge,
		OutboxFailedGauge,
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
