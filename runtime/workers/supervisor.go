package workers

import (
	"chat-store/contract"
	"chat-store/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Supervisor owns a context and its Cancel function.
// It runs each worker in a goroutine, recovers panics and restarts crashed
// workers after restartDelay. A worker failing more than maxRestarts times
// (0 means no limit) stops every other worker and fails Run.
type Supervisor struct {
	Cancel       context.CancelFunc
	wg           *sync.WaitGroup
	log          *slog.Logger
	workers      []contract.Worker
	restartDelay time.Duration
	maxRestarts  int
	errOnce      sync.Once
	err          error
}

func NewSupervisor(log *slog.Logger, restartDelay time.Duration, maxRestarts int) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartDelay: restartDelay, maxRestarts: maxRestarts}
}

func (s *Supervisor) Add(worker ...contract.Worker) *Supervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run blocks until the parent ctx is canceled, every worker finished,
// or a worker gave up. Only the last case returns an error.
func (s *Supervisor) Run(ctx context.Context) error {
	// If the parent cancels, we cancel. If we call s.Cancel(), only our children do.
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
	return s.err
}

// Start runs a worker under supervision in a dedicated goroutine.
// A failure in one worker never takes the supervision loop down with it.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		restarts := 0
		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				// Terminated properly, never restart
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}

			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			if s.maxRestarts > 0 && restarts >= s.maxRestarts {
				s.log.Error("Worker gave up", "name", workerName, "restarts", restarts, "error", err)
				s.fail(fmt.Errorf("%w: %s: %w", errors.ErrTooManyRestarts, workerName, err))
				return
			}
			restarts++

			s.log.Warn("Worker crashed, restarting", "name", workerName, "attempt", restarts, "error", err)
			select {
			case <-ctx.Done():
				// Priority stop, no restart delay
				return
			case <-time.After(s.restartDelay):
			}
		}
	}()
}

// Stop cancels every supervised worker. Run returns once they all exit.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}

func (s *Supervisor) fail(err error) {
	s.errOnce.Do(func() {
		s.err = err
		s.Stop()
	})
}
