package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"fintrack/internal/log"
)

// RunSchedule kicks a full export on every tick of spec until ctx is done.
// It catches up on events lost while the worker or the broker was down.
func (w *ExportWorker) RunSchedule(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		w.logger.InfoContext(ctx, "Scheduled export requested", log.FieldOperation, log.OpExport)
		w.Kick()
	}); err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
