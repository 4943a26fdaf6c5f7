package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/api/response"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/quota"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// Pinger reports reachability of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// QuotaReporter exposes the quota state for the status endpoint.
type QuotaReporter interface {
	Snapshot() quota.Snapshot
}

// JobReporter exposes run statistics for every known job.
type JobReporter interface {
	Snapshot() []models.JobStats
}

// Schedule reports the next fire time of a scheduled job.
type Schedule interface {
	NextRun(name string) time.Time
}

type jobStatus struct {
	models.JobStats
	NextRun *time.Time `json:"next_run,omitempty"`
}

type statusPayload struct {
	Quota quota.Snapshot `json:"quota"`
	Jobs  []jobStatus    `json:"jobs"`
}

// NewStatusHandler returns the handler for GET /api/v1/status: the quota
// snapshot plus per-job run statistics and next fire times.
func NewStatusHandler(quotas QuotaReporter, jobs JobReporter, sched Schedule) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := statusPayload{
			Quota: quotas.Snapshot(),
			Jobs:  []jobStatus{},
		}
		for _, js := range jobs.Snapshot() {
			st := jobStatus{JobStats: js}
			if next := sched.NextRun(js.Name); !next.IsZero() {
				st.NextRun = &next
			}
			payload.Jobs = append(payload.Jobs, st)
		}
		response.JSON(w, payload)
	}
}

// NewHealthHandler returns the handler for GET /api/v1/health. Health is the
// reachability of the database and cache; either failing makes the service
// unhealthy.
func NewHealthHandler(db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"database": "ok", "cache": "ok"}
		healthy := true
		if err := db.Ping(r.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if err := cache.Ping(r.Context()); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		}
		if !healthy {
			response.Error(w, http.StatusServiceUnavailable, "UNHEALTHY", "Dependency check failed", checks)
			return
		}
		response.JSON(w, map[string]any{"status": "ok", "checks": checks})
	}
}
