package game

import (
	"sync"
	"time"
)

type armedTimer struct {
	gen   uint64
	timer *time.Timer
}

// TimerSupervisor owns the one-shot timers the manager arms: one turn timer
// per match plus disconnect-forfeit timers. Arming a key replaces any timer
// already armed under it, but never with an older generation, so two arms
// racing out of order cannot leave the stale timer in place. Stale fires are
// additionally defeated by the generation checks the manager performs in the
// callbacks; the supervisor only guarantees that Cancel stops a timer that
// has not fired yet.
type TimerSupervisor struct {
	mu     sync.Mutex
	timers map[string]armedTimer
}

func NewTimerSupervisor() *TimerSupervisor {
	return &TimerSupervisor{timers: make(map[string]armedTimer)}
}

// Arm schedules fire after d. The call is ignored if a newer generation is
// already armed under the same key.
func (ts *TimerSupervisor) Arm(key string, gen uint64, d time.Duration, fire func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if cur, ok := ts.timers[key]; ok {
		if gen < cur.gen {
			return
		}
		cur.timer.Stop()
	}
	ts.timers[key] = armedTimer{gen: gen, timer: time.AfterFunc(d, fire)}
}

// Cancel stops the timer under key, if any.
func (ts *TimerSupervisor) Cancel(key string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if cur, ok := ts.timers[key]; ok {
		cur.timer.Stop()
		delete(ts.timers, key)
	}
}
