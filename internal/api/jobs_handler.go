package api

import (
	"net/http"
	"time"

	"guesthouse/roomsync/internal/jobs"
	"guesthouse/roomsync/internal/logging"
)

// JobsHandler handles manual job triggering endpoints
type JobsHandler struct {
	jobs *jobs.Jobs
}

func NewJobsHandler(j *jobs.Jobs) *JobsHandler {
	return &JobsHandler{jobs: j}
}

type RetrySweepResponse struct {
	Enqueued   int   `json:"enqueued"`
	DurationMs int64 `json:"duration_ms"`
}

// TriggerRetrySweep handles POST /api/v1/jobs/retry-sweep
func (h *JobsHandler) TriggerRetrySweep() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logging.Info("Retry sweep manually triggered", "caller", callerID(r))

		n, err := h.jobs.RetrySweep.Run(r.Context())
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, &RetrySweepResponse{
			Enqueued:   n,
			DurationMs: time.Since(start).Milliseconds(),
		})
	}
}

// TriggerScheduledSync handles POST /api/v1/jobs/scheduled-sync
func (h *JobsHandler) TriggerScheduledSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logging.Info("Scheduled sync manually triggered", "caller", callerID(r))

		res, err := h.jobs.ScheduledSync.Run(r.Context())
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, res)
	}
}
