package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-level Prometheus metrics.
type Metrics struct {
	BuildInfo   *prometheus.GaugeVec
	StorageMode *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "custody_build_info",
			Help: "Build information, value is always 1",
		}, []string{"version"}),
		StorageMode: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "custody_storage_mode",
			Help: "Active persistence mode, value is always 1",
		}, []string{"mode"}),
	}
}

// SetBuildInfo records the running version.
func (m *Metrics) SetBuildInfo(version string) {
	m.BuildInfo.WithLabelValues(version).Set(1)
}

// SetStorageMode records whether the ledger runs on memory or postgres.
func (m *Metrics) SetStorageMode(mode string) {
	m.StorageMode.WithLabelValues(mode).Set(1)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
