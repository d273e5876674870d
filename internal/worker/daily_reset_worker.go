package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osse101/SmartList_Go/internal/entitlement"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// Sessions enumerates the live entitlement engines
type Sessions interface {
	Each(fn func(*entitlement.Engine))
}

// DailyResetWorker runs the daily counter reset check on every live session at
// local midnight. Sessions also reset lazily on use; the sweep covers idle ones.
type DailyResetWorker struct {
	sessions  Sessions
	publisher event.Publisher
	loc       *time.Location
	now       func() time.Time
	pool      *Pool
	timer     *time.Timer
	shutdown  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	mu        sync.Mutex
}

// NewDailyResetWorker creates a new DailyResetWorker for the calendar in loc
func NewDailyResetWorker(sessions Sessions, publisher event.Publisher, loc *time.Location) *DailyResetWorker {
	if loc == nil {
		loc = time.Local
	}
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	pool := NewPool(SweepWorkers, SweepQueueSize)
	pool.Start()
	return &DailyResetWorker{
		sessions:  sessions,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
		pool:      pool,
		shutdown:  make(chan struct{}),
	}
}

// Start initializes the worker and schedules the first reset
func (w *DailyResetWorker) Start() {
	w.scheduleNext()
}

// scheduleNext calculates the time until the next local midnight and schedules the sweep
func (w *DailyResetWorker) scheduleNext() {
	duration := timeUntilNextReset(w.now(), w.loc)
	log := logger.FromContext(context.Background())

	w.mu.Lock()
	select {
	case <-w.shutdown:
		w.mu.Unlock()
		return
	default:
	}
	if w.timer != nil {
		w.timer.Stop()
	}

	// Two-stage scheduling to prevent "tight loop" rescheduling caused by early triggers
	if duration > StandbyThreshold {
		waitDuration := duration - StandbyLead
		w.timer = time.AfterFunc(waitDuration, func() {
			w.scheduleNext()
		})
		w.mu.Unlock()

		log.Info(LogMsgDailyResetStandby, "next_check_at", w.now().Add(waitDuration))
		return
	}

	w.timer = time.AfterFunc(duration, func() {
		select {
		case <-w.shutdown:
			return
		default:
		}

		// Jitter protection: an early trigger reschedules for the remaining time
		rem := timeUntilNextReset(w.now(), w.loc)
		if rem > JitterTolerance && rem < 23*time.Hour {
			w.scheduleNext()
			return
		}

		w.executeReset()
		w.scheduleNext()
	})
	w.mu.Unlock()

	log.Info(LogMsgDailyResetApproach, "next_reset_at", w.now().Add(duration))
}

// executeReset performs the sweep in a tracked goroutine
func (w *DailyResetWorker) executeReset() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.RunNow(context.Background())
	}()
}

// RunNow sweeps every live session and returns how many requested a reset
func (w *DailyResetWorker) RunNow(ctx context.Context) int {
	log := logger.FromContext(ctx)
	log.Info(LogMsgDailyResetStarting)

	var (
		triggered atomic.Int64
		done      sync.WaitGroup
	)
	w.sessions.Each(func(engine *entitlement.Engine) {
		done.Add(1)
		job := &resetJob{ctx: ctx, engine: engine, triggered: &triggered, done: &done}
		if !w.pool.Enqueue(job) {
			done.Done()
		}
	})
	done.Wait()

	n := triggered.Load()
	log.Info(LogMsgDailyResetCompleted, "sessions_reset", n)
	w.publisher.PublishWithRetry(ctx, event.NewDailyResetCompleteEvent(w.now().UTC(), n))
	return int(n)
}

type resetJob struct {
	ctx       context.Context
	engine    *entitlement.Engine
	triggered *atomic.Int64
	done      *sync.WaitGroup
}

func (j *resetJob) Process(context.Context) error {
	defer j.done.Done()
	if j.engine.CheckDailyReset(j.ctx) {
		j.triggered.Add(1)
	}
	return nil
}

// Shutdown gracefully shuts down the daily reset worker
// Cancels the pending timer and waits for any in-flight sweeps to complete
func (w *DailyResetWorker) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgDailyResetShutdown)

	w.closeOnce.Do(func() {
		close(w.shutdown)
	})

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		w.pool.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info(LogMsgDailyResetShutdownDone)
		return nil
	case <-ctx.Done():
		log.Warn(LogMsgDailyResetShutdownTimeout)
		return ctx.Err()
	}
}

// timeUntilNextReset calculates the duration until the next midnight in loc
func timeUntilNextReset(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	nextReset := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if !nextReset.After(local) {
		nextReset = nextReset.AddDate(0, 0, 1)
	}
	return nextReset.Sub(local)
}
