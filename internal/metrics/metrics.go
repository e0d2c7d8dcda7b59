// Package metrics exposes Prometheus metrics for tgtadm activity and the
// exports currently known to the target daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "iscsi_exportd"

var (
	tgtadmCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tgtadm",
			Name:      "commands_total",
			Help:      "Number of tgtadm invocations by mode, operation and result.",
		},
		[]string{"mode", "op", "result"},
	)

	tgtadmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tgtadm",
			Name:      "command_duration_seconds",
			Help:      "Time spent waiting for tgtadm to complete.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode", "op"},
	)

	volumeOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "volume",
			Name:      "operations_total",
			Help:      "Number of volume attach and detach requests by result.",
		},
		[]string{"operation", "result"},
	)

	auditMissingDevices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "missing_devices",
			Help:      "Number of managed exports without a usable backing store at the last audit.",
		},
	)
)

// ObserveCommand records a single tgtadm invocation.
func ObserveCommand(mode string, op string, result string, duration time.Duration) {
	tgtadmCommands.WithLabelValues(mode, op, result).Inc()
	tgtadmDuration.WithLabelValues(mode, op).Observe(duration.Seconds())
}

// ObserveVolumeOperation records the outcome of an attach or detach request.
func ObserveVolumeOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}

	volumeOperations.WithLabelValues(operation, result).Inc()
}

// ObserveAudit records the result of the last export audit.
func ObserveAudit(missingDevices int) {
	auditMissingDevices.Set(float64(missingDevices))
}

// NewRegistry returns a registry holding the process collectors, the command
// metrics and, when lister is set, the exports collector.
func NewRegistry(lister TargetLister) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		tgtadmCommands,
		tgtadmDuration,
		volumeOperations,
		auditMissingDevices,
	}

	if lister != nil {
		cs = append(cs, NewExportsCollector(lister))
	}

	for _, c := range cs {
		err := reg.Register(c)
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Handler returns the HTTP handler serving the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
