package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/api/response"
)

// TriggerParams carries the manual-run overrides. Zero values mean "use the
// configured default".
type TriggerParams struct {
	Force    bool
	Count    int
	DailyCap int
}

// TriggerFunc runs one job synchronously and returns its structured stats.
// A nil result with a non-nil error is a job-level fatal condition; a non-nil
// result reports its own outcome (completed, partial, skipped) even when err
// is set.
type TriggerFunc func(ctx context.Context, p TriggerParams) (any, error)

// NewTriggerHandler returns the handler for POST /api/v1/jobs/{job}/run.
// The run executes within the request and the stats are returned to the
// caller. Query parameters: force=true bypasses the job's admission gates,
// count and daily_cap override the scheduled defaults.
func NewTriggerHandler(job string, trigger TriggerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := TriggerParams{
			Force:    r.URL.Query().Get("force") == "true",
			Count:    queryInt(r, "count"),
			DailyCap: queryInt(r, "daily_cap"),
		}

		result, err := trigger(r.Context(), p)
		if result == nil && err != nil {
			response.Error(w, http.StatusInternalServerError, "JOB_FAILED", err.Error(), nil)
			return
		}
		response.JSON(w, map[string]any{"job": job, "result": result})
	}
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
