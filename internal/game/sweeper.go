package game

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Sweeper periodically runs the manager's stale-match recovery. It exists so
// a crashed or wedged client can never strand escrowed funds: any active
// match without a move inside the staleness window gets both stakes back.
type Sweeper struct {
	mgr   *Manager
	sched gocron.Scheduler
}

func NewSweeper(mgr *Manager, interval time.Duration) (*Sweeper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	s := &Sweeper{mgr: mgr, sched: sched}

	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run),
	); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the sweep schedule.
func (s *Sweeper) Start() {
	s.sched.Start()
	log.Printf("[SWEEP] Recovery sweeper started")
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	if err := s.sched.Shutdown(); err != nil {
		log.Printf("[SWEEP] Shutdown error: %v", err)
	}
}

func (s *Sweeper) run() {
	s.mgr.SweepStale(context.Background())
}
