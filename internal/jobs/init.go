package jobs

import (
	"context"
	"time"
)

// Jobs groups the background jobs so handlers can also run them on demand.
type Jobs struct {
	RetrySweep    *RetrySweepJob
	ScheduledSync *ScheduledSyncJob
}

// InitializeJobs starts every background job. A non-positive interval leaves
// that job unscheduled.
func InitializeJobs(ctx context.Context, j *Jobs, sweepInterval, syncInterval time.Duration) {
	if j.RetrySweep != nil && sweepInterval > 0 {
		go j.RetrySweep.RunScheduled(ctx, sweepInterval)
	}
	if j.ScheduledSync != nil && syncInterval > 0 {
		go j.ScheduledSync.RunScheduled(ctx, syncInterval)
	}
}
