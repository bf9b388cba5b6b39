// Package scheduler implements the per-worker access tracking and hot-block
// migration described in spec §4.D, grounded on original_source/scheduler.c's
// CoreQueue/WorkUnit pair (unlocked there, since each core thread only ever
// touches its own queue directly — swapcore's migration path has one worker
// reach into another's queue, so each workerQueue carries its own lock here).
package scheduler

import (
	"strconv"
	"time"

	"swapcore/internal/metrics"
)

const (
	queueCap         = 64
	donorCountFloor  = 10 * time.Second
)

// Scheduler owns one workerQueue per worker. Open Question 4 is resolved by
// pinning should_migrate/get_migrated_task to *unit counts* (len(units)),
// with an additional hot-floor filter ("last_seen within 10s") on the
// migration victim, rather than the source's inconsistent mixing of hot
// sums and unit counts.
type Scheduler struct {
	queues             []*workerQueue
	migrationThreshold int
	metrics            *metrics.Metrics
}

// New builds a scheduler for cores workers.
func New(cores, migrationThreshold int, m *metrics.Metrics) *Scheduler {
	s := &Scheduler{
		queues:             make([]*workerQueue, cores),
		migrationThreshold: migrationThreshold,
		metrics:            m,
	}
	for i := range s.queues {
		s.queues[i] = newWorkerQueue(queueCap)
	}
	return s
}

// ReportAccess records an access to offset by workerID (spec §4.D). An
// existing unit has its hot counter incremented and last_seen refreshed;
// a new unit is appended if there's room, otherwise it replaces the
// coldest (lowest hot, ties broken by oldest last_seen) existing unit.
func (s *Scheduler) ReportAccess(workerID int, offset uint64) {
	q := s.queues[workerID]
	now := time.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.units {
		if q.units[i].offset == offset {
			q.units[i].hot++
			q.units[i].lastSeen = now
			return
		}
	}

	if len(q.units) < q.cap {
		q.units = append(q.units, workUnit{offset: offset, hot: 1, lastSeen: now})
		s.reportQueueLen(workerID, len(q.units))
		return
	}

	victim := 0
	for i := 1; i < len(q.units); i++ {
		if q.units[i].hot < q.units[victim].hot ||
			(q.units[i].hot == q.units[victim].hot && q.units[i].lastSeen.Before(q.units[victim].lastSeen)) {
			victim = i
		}
	}
	q.units[victim] = workUnit{offset: offset, hot: 1, lastSeen: now}
}

// ShouldMigrate reports whether workerID is under-loaded relative to its
// peers and should pull in work (spec §4.D).
func (s *Scheduler) ShouldMigrate(workerID int) bool {
	cores := len(s.queues)
	if cores <= 1 {
		return false
	}

	total := 0
	for i, q := range s.queues {
		if i == workerID {
			continue
		}
		total += q.len()
	}
	avg := total / (cores - 1)
	own := s.queues[workerID].len()
	return own < avg-s.migrationThreshold
}

// none is the sentinel "no migration available" return from
// GetMigratedTask.
const none = ^uint64(0)

// None reports whether a GetMigratedTask result is the "no donor" sentinel.
func None(offset uint64) bool { return offset == none }

// GetMigratedTask finds the most-loaded peer of workerID and, if it clears
// migrationThreshold, removes and returns its hottest unit seen within the
// last 10 seconds. Returns the None sentinel if no peer qualifies.
func (s *Scheduler) GetMigratedTask(workerID int) uint64 {
	donor := -1
	donorLen := 0
	for i, q := range s.queues {
		if i == workerID {
			continue
		}
		n := q.len()
		if n > donorLen {
			donorLen = n
			donor = i
		}
	}
	if donor < 0 || donorLen <= s.migrationThreshold {
		return none
	}

	q := s.queues[donor]
	now := time.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	best := -1
	for i := range q.units {
		if now.Sub(q.units[i].lastSeen) > donorCountFloor {
			continue
		}
		if best < 0 || q.units[i].hot > q.units[best].hot {
			best = i
		}
	}
	if best < 0 {
		return none
	}

	offset := q.units[best].offset
	q.units = append(q.units[:best], q.units[best+1:]...)
	if s.metrics != nil {
		s.metrics.Migrations.Inc()
	}
	s.reportQueueLen(donor, len(q.units))
	return offset
}

// QueueLen reports workerID's current logical queue length, for worker-loop
// throttling decisions (spec §4.E step 10).
func (s *Scheduler) QueueLen(workerID int) int {
	return s.queues[workerID].len()
}

func (s *Scheduler) reportQueueLen(workerID, n int) {
	if s.metrics == nil {
		return
	}
	s.metrics.WorkerQueueLen.WithLabelValues(strconv.Itoa(workerID)).Set(float64(n))
}
