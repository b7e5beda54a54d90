package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/repository"
)

// ReplayOptions select which unfinished records Replay picks up.
type ReplayOptions struct {
	// StaleAfter, when positive, also reclaims pending and notifying records
	// that have not been updated for this long. Those are left behind by a
	// worker that died mid-run.
	StaleAfter time.Duration
	// Limit bounds the records listed per status. Zero means no limit.
	Limit int
}

// ReplayReport counts what a Replay did.
type ReplayReport struct {
	Scanned   int `json:"scanned"`
	Reclaimed int `json:"reclaimed"`
	Finished  int `json:"finished"`
	Failed    int `json:"failed"`
}

// Replay runs every resumable record through Handle again: records whose
// notification was not delivered and records that failed transiently.
func (o *Orchestrator) Replay(ctx context.Context, opts ReplayOptions) (ReplayReport, error) {
	var report ReplayReport
	log := o.deps.Logger.Named("replay")

	if opts.StaleAfter > 0 {
		cutoff := o.now().Add(-opts.StaleAfter)
		reclaims := []struct{ from, to model.Status }{
			{model.StatusPending, model.StatusFailedTransient},
			{model.StatusNotifying, model.StatusSucceededNotNotified},
		}
		for _, rc := range reclaims {
			stale, err := o.deps.Store.List(ctx, repository.ListFilter{Status: rc.from, Limit: opts.Limit})
			if err != nil {
				return report, err
			}
			for _, rec := range stale {
				if rec.UpdatedAt.After(cutoff) {
					continue
				}
				swapped, err := o.deps.Store.CompareAndSwapStatus(ctx, rec.Key(), rc.from, rc.to)
				if err != nil {
					return report, err
				}
				if swapped {
					report.Reclaimed++
					log.Info("reclaimed stale record",
						zap.String("key", rec.Key()),
						zap.String("from", string(rc.from)),
						zap.Time("updated_at", rec.UpdatedAt),
					)
				}
			}
		}
	}

	for _, status := range []model.Status{model.StatusSucceededNotNotified, model.StatusFailedTransient} {
		records, err := o.deps.Store.List(ctx, repository.ListFilter{Status: status, Limit: opts.Limit})
		if err != nil {
			return report, err
		}
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Scanned++
			out, err := o.Handle(ctx, Submission{
				Identity:  rec.Identity,
				Recipient: rec.Recipient,
				SourceURL: rec.SourceURL,
			})
			if err != nil {
				report.Failed++
				log.Warn("replay failed", zap.String("key", rec.Key()), zap.Error(err))
				continue
			}
			if out.Status.Terminal() {
				report.Finished++
			}
		}
	}
	return report, nil
}
