package cron

import (
	"context"
	"sync"
	"time"

	"github.com/jelajah-lab/backend/pkg/xcontext"
)

type CronJob interface {
	Do(context.Context)
	RunNow() bool
	Next() time.Time
}

// CronJobManager runs every registered job at the time returned by its Next
// method, forever, until it is cancelled.
type CronJobManager struct {
	mutex   sync.Mutex
	wait    sync.WaitGroup
	jobs    map[CronJob]*time.Timer
	stopped bool
	done    chan struct{}
}

func NewCronJobManager() *CronJobManager {
	return &CronJobManager{
		jobs: make(map[CronJob]*time.Timer),
		done: make(chan struct{}),
	}
}

func (m *CronJobManager) Register(job CronJob) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.jobs[job] = nil
}

// Start blocks until the context is done or Cancel is called, then waits for
// the running jobs.
func (m *CronJobManager) Start(ctx context.Context) {
	xcontext.Logger(ctx).Infof("Cron job manager started")

	m.mutex.Lock()
	for job := range m.jobs {
		if job.RunNow() {
			m.wait.Add(1)
			go func(job CronJob) {
				defer m.wait.Done()
				m.run(ctx, job)
			}(job)
		} else {
			m.schedule(ctx, job)
		}
	}
	m.mutex.Unlock()

	select {
	case <-ctx.Done():
		m.Cancel(ctx)
	case <-m.done:
	}

	m.wait.Wait()
	xcontext.Logger(ctx).Infof("Cron job manager stopped")
}

func (m *CronJobManager) Cancel(ctx context.Context) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.stopped {
		return
	}

	m.stopped = true
	for _, timer := range m.jobs {
		// A timer which already fired is waited by Start.
		if timer != nil && timer.Stop() {
			m.wait.Done()
		}
	}

	close(m.done)
}

func (m *CronJobManager) run(ctx context.Context, job CronJob) {
	xcontext.Logger(ctx).Infof("%T is running...", job)
	job.Do(ctx)
	xcontext.Logger(ctx).Infof("%T ok", job)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.schedule(ctx, job)
}

// schedule must be called with the mutex held.
func (m *CronJobManager) schedule(ctx context.Context, job CronJob) {
	if m.stopped {
		return
	}

	m.wait.Add(1)
	m.jobs[job] = time.AfterFunc(time.Until(job.Next()), func() {
		defer m.wait.Done()
		m.run(ctx, job)
	})
}
