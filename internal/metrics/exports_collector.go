package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

// TargetLister returns the targets currently reported by the target daemon.
type TargetLister interface {
	ListTargets(ctx context.Context) ([]api.Target, error)
}

// ExportsCollector reports the daemon's targets at scrape time.
type ExportsCollector struct {
	lister TargetLister

	count *prometheus.Desc
	info  *prometheus.Desc
	up    *prometheus.Desc
}

// NewExportsCollector returns a collector backed by lister.
func NewExportsCollector(lister TargetLister) *ExportsCollector {
	return &ExportsCollector{
		lister: lister,
		count: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "exports"),
			"Number of targets reported by tgtd.",
			nil, nil,
		),
		info: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "export", "info"),
			"Target reported by tgtd.",
			[]string{"tid", "iqn", "backing_store"}, nil,
		),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "tgtd", "up"),
			"Whether the last status query against tgtd succeeded.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *ExportsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.count
	ch <- c.info
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *ExportsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	targets, err := c.lister.ListTargets(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to query targets during scrape", "err", err)
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)

		return
	}

	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.count, prometheus.GaugeValue, float64(len(targets)))

	for _, target := range targets {
		ch <- prometheus.MustNewConstMetric(c.info, prometheus.GaugeValue, 1, strconv.Itoa(target.ID), target.IQN, target.BackingStore)
	}
}
