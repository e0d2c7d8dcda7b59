package exports

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/lxc/incus-os/iscsi-exportd/api"
	"github.com/lxc/incus-os/iscsi-exportd/internal/metrics"
)

// Audit compares the daemon's exports with the devices present on the host
// and logs any export left behind by a partial attach or detach.
func (c *Controller) Audit(ctx context.Context) (*api.ExportsAudit, error) {
	return c.audit(ctx, func(path string) bool {
		_, err := os.Stat(path)

		return err == nil
	})
}

func (c *Controller) audit(ctx context.Context, exists func(string) bool) (*api.ExportsAudit, error) {
	runID := uuid.New().String()

	list, err := c.ListTargets(ctx)
	if err != nil {
		return nil, err
	}

	report := &api.ExportsAudit{Targets: len(list), MissingDevice: []api.Target{}}

	for _, target := range list {
		if !strings.HasPrefix(target.IQN, c.config.IQNPrefix+":") {
			continue
		}

		report.Managed++

		if target.BackingStore == "" || !exists(target.BackingStore) {
			slog.WarnContext(ctx, "Export has no usable backing store", "audit", runID, "tid", target.ID, "iqn", target.IQN, "device", target.BackingStore)

			report.MissingDevice = append(report.MissingDevice, target)
		}
	}

	metrics.ObserveAudit(len(report.MissingDevice))

	slog.InfoContext(ctx, "Audited exports", "audit", runID, "targets", report.Targets, "managed", report.Managed, "missing_device", len(report.MissingDevice))

	return report, nil
}
