package services

import (
	"offerhub-backend/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Collecteurs Prometheus de la synchronisation, enregistrés une seule fois
var (
	SyncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "offerhub",
		Name:      "sync_runs_total",
		Help:      "Exécutions de la synchronisation Salesforce par statut final.",
	}, []string{"status"})

	SyncRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "offerhub",
		Name:      "sync_records_total",
		Help:      "Enregistrements Salesforce traités par objet et résultat.",
	}, []string{"object", "outcome"})
)

func init() {
	prometheus.MustRegister(SyncRuns, SyncRecords)
}

// recordSyncMetrics reporte les compteurs d'un run terminé
func recordSyncMetrics(run *models.SyncRun) {
	SyncRuns.WithLabelValues(run.Status).Inc()
	for object, c := range map[string]models.SyncCounters{"provider": run.Providers, "offer": run.Offers} {
		SyncRecords.WithLabelValues(object, "created").Add(float64(c.Created))
		SyncRecords.WithLabelValues(object, "updated").Add(float64(c.Updated))
		SyncRecords.WithLabelValues(object, "skipped").Add(float64(c.Skipped))
		SyncRecords.WithLabelValues(object, "failed").Add(float64(c.Failed))
	}
}
