package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Cron schedules named jobs in a fixed timezone. It is a thin layer over
// robfig/cron that keeps entry IDs addressable by job name so the status API
// can report next fire times.
type Cron struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

func NewCron(loc *time.Location) *Cron {
	return &Cron{
		cron:    cron.New(cron.WithLocation(loc)),
		entries: make(map[string]cron.EntryID),
	}
}

func (c *Cron) Add(name, spec string, fn func()) error {
	id, err := c.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	c.entries[name] = id
	return nil
}

func (c *Cron) Start() {
	c.cron.Start()
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (c *Cron) Stop() {
	<-c.cron.Stop().Done()
}

// NextRun returns the next fire time for a job, or the zero time if the job
// is unknown or the scheduler has not started.
func (c *Cron) NextRun(name string) time.Time {
	id, ok := c.entries[name]
	if !ok {
		return time.Time{}
	}
	return c.cron.Entry(id).Next
}
