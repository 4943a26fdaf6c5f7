// Package scheduler runs named background jobs with mutual exclusion and
// per-job run statistics, and wires them onto cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Runner serializes invocations per job name. A job that is still running
// when its next tick arrives is skipped, never queued, so a slow run can
// never pile up behind itself.
type Runner struct {
	mu               sync.Mutex
	jobs             map[string]*jobState
	progressInterval time.Duration
	now              func() time.Time
}

type jobState struct {
	running bool
	stats   models.JobStats
}

func NewRunner(progressInterval time.Duration) *Runner {
	return &Runner{
		jobs:             make(map[string]*jobState),
		progressInterval: progressInterval,
		now:              time.Now,
	}
}

func (r *Runner) state(name string) *jobState {
	st, ok := r.jobs[name]
	if !ok {
		st = &jobState{stats: models.JobStats{Name: name}}
		r.jobs[name] = st
	}
	return st
}

// Run executes fn under the job's lock. The lock is released on every exit
// path, including a panic inside fn; a panicking run is recorded as a failed
// run and the panic does not propagate.
func (r *Runner) Run(ctx context.Context, name string, fn func(context.Context) error) (Outcome, error) {
	started := r.now()

	r.mu.Lock()
	st := r.state(name)
	st.stats.LastScheduled = &started
	if st.running {
		r.mu.Unlock()
		slog.Info("job still running, skipping this invocation", "job", name)
		return OutcomeSkipped, nil
	}
	st.running = true
	st.stats.Running = true
	st.stats.LastStarted = &started
	r.mu.Unlock()

	slog.Info("job started", "job", name)

	done := make(chan struct{})
	if r.progressInterval > 0 {
		go r.logProgress(name, started, done)
	}

	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("job %s panicked: %v", name, p)
			}
		}()
		err = fn(ctx)
	}()
	close(done)

	finished := r.now()
	duration := finished.Sub(started)

	r.mu.Lock()
	st.running = false
	st.stats.Running = false
	st.stats.LastCompleted = &finished
	st.stats.LastDuration = duration
	st.stats.TotalRuns++
	n := st.stats.TotalRuns
	if n == 1 {
		st.stats.AvgDuration = duration
	} else {
		st.stats.AvgDuration = time.Duration((int64(st.stats.AvgDuration)*(n-1) + int64(duration)) / n)
	}
	if err != nil {
		st.stats.LastError = err.Error()
	} else {
		st.stats.LastError = ""
	}
	r.mu.Unlock()

	if err != nil {
		slog.Error("job failed", "job", name, "duration", duration, "error", err)
		return OutcomeFailed, err
	}
	slog.Info("job completed", "job", name, "duration", duration)
	return OutcomeCompleted, nil
}

func (r *Runner) logProgress(name string, started time.Time, done <-chan struct{}) {
	ticker := time.NewTicker(r.progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			slog.Info("job still running", "job", name, "elapsed", r.now().Sub(started).Round(time.Second))
		}
	}
}

// Snapshot returns a copy of every job's statistics, ordered by name.
func (r *Runner) Snapshot() []models.JobStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.JobStats, 0, len(r.jobs))
	for _, st := range r.jobs {
		out = append(out, st.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
