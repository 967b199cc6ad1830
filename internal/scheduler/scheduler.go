// Package scheduler runs periodic board maintenance.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Renormalizer respaces collapsed sort indices and reports how many
// containers it rewrote.
type Renormalizer interface {
	RenormalizeAll(ctx context.Context) (int, error)
}

// Scheduler wraps cron-based jobs.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// New creates a Scheduler running in UTC. Each job run is bounded by timeout.
func New(timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		timeout: timeout,
	}
}

// ScheduleRenormalization registers r on spec, a standard cron expression or
// a descriptor such as "@every 1h". An empty spec disables the job.
func (s *Scheduler) ScheduleRenormalization(spec string, r Renormalizer) (cron.EntryID, error) {
	if spec == "" {
		log.Println("[scheduler] renormalization disabled")
		return 0, nil
	}
	id, err := s.cron.AddFunc(spec, func() { s.RunRenormalization(r) })
	if err != nil {
		return 0, fmt.Errorf("invalid renormalize schedule %q: %w", spec, err)
	}
	log.Printf("[scheduler] renormalization scheduled: %s", spec)
	return id, nil
}

// RunRenormalization runs one renormalization pass and logs its outcome.
func (s *Scheduler) RunRenormalization(r Renormalizer) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := r.RenormalizeAll(ctx)
	if err != nil {
		log.Printf("[scheduler] renormalization failed after %d containers: %v", n, err)
		return
	}
	if n > 0 {
		log.Printf("[scheduler] renormalized %d containers", n)
	}
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
