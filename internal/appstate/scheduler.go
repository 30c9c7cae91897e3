package appstate

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultToastRefreshEvery = 100 * time.Millisecond
	DefaultWarningCheckEvery = 2000 * time.Millisecond
)

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler runs named polling tasks until they are cancelled or the
// scheduler is stopped.
type Scheduler struct {
	log    *slog.Logger
	mu     sync.Mutex
	wg     sync.WaitGroup
	tasks  map[string]*task
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(ctx context.Context, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		log:    logger,
		tasks:  map[string]*task{},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every runs fn on each tick of interval. Scheduling a name again replaces
// the previous task. The returned func cancels the task and waits for it.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(context.Context)) func() {
	s.mu.Lock()
	if prev, ok := s.tasks[name]; ok {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks[name] = t
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Debug("task stopped", "task", name)
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-t.done
		s.mu.Lock()
		if s.tasks[name] == t {
			delete(s.tasks, name)
		}
		s.mu.Unlock()
	}
}

// Running lists the names of live tasks.
func (s *Scheduler) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		out = append(out, name)
	}
	return out
}

// Stop cancels every task and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.mu.Lock()
	s.tasks = map[string]*task{}
	s.mu.Unlock()
}
