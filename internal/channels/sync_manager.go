// Package channels runs the simulated marketplace synchronization jobs.
package channels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"retail-dashboard-api/internal/cache"
	"retail-dashboard-api/internal/models"
)

var (
	ErrJobNotFound    = errors.New("sync job not found")
	ErrSyncInProgress = errors.New("channel sync already in progress")
)

// Options selects what a sync transfers. No selection means everything.
type Options struct {
	Products  bool `json:"products"`
	Orders    bool `json:"orders"`
	Inventory bool `json:"inventory"`
}

// Normalize turns an empty selection into a full one
func (o Options) Normalize() Options {
	if !o.Products && !o.Orders && !o.Inventory {
		return Options{Products: true, Orders: true, Inventory: true}
	}
	return o
}

// SyncRequest asks for one channel to be synchronized
type SyncRequest struct {
	ChannelID string  `json:"channelId"`
	Options   Options `json:"options"`
}

// JobState is the lifecycle stage of a sync job
type JobState string

const (
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobCancelled JobState = "cancelled"
	JobFailed    JobState = "failed"
)

// Job is a snapshot of one sync run
type Job struct {
	ID         string     `json:"id"`
	ChannelID  string     `json:"channelId"`
	Options    Options    `json:"options"`
	State      JobState   `json:"state"`
	Step       int        `json:"step"`
	Steps      int        `json:"steps"`
	Progress   int        `json:"progress"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Recorder stores the outcome of a finished sync on the channel
type Recorder interface {
	RecordSync(ctx context.Context, channelID string, finishedAt time.Time) error
}

// Publisher receives activity events
type Publisher interface {
	Publish(eventType, entityType, entityID string, attrs map[string]string) models.Event
}

// SyncStatus summarizes the manager for health reporting
type SyncStatus struct {
	Running         int       `json:"running"`
	Completed       int       `json:"completed"`
	Cancelled       int       `json:"cancelled"`
	Failed          int       `json:"failed"`
	LastSyncTime    time.Time `json:"lastSyncTime,omitempty"`
	LastSyncSuccess bool      `json:"lastSyncSuccess"`
}

// Config configures the sync manager
type Config struct {
	Duration        time.Duration
	Steps           int
	JobTTL          time.Duration
	CleanupInterval time.Duration
	Logger          *slog.Logger
}

type jobState struct {
	mu     sync.Mutex
	job    Job
	cancel context.CancelFunc
}

func (s *jobState) snapshot() Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.job
	return job
}

// Manager runs at most one sync job per channel
type Manager struct {
	recorder  Recorder
	publisher Publisher
	logger    *slog.Logger
	duration  time.Duration
	steps     int
	now       func() time.Time

	jobs    *cache.TTLCache[*jobState]
	running map[string]*jobState
	mu      sync.Mutex

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup

	status      SyncStatus
	statusMutex sync.RWMutex
}

// NewManager creates a sync manager
func NewManager(recorder Recorder, publisher Publisher, cfg Config) *Manager {
	if cfg.Steps < 1 {
		cfg.Steps = 5
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 3 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 10 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		recorder:   recorder,
		publisher:  publisher,
		logger:     cfg.Logger,
		duration:   cfg.Duration,
		steps:      cfg.Steps,
		now:        time.Now,
		jobs:       cache.NewTTLCache[*jobState]("sync-jobs", cfg.JobTTL, cfg.CleanupInterval),
		running:    make(map[string]*jobState),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

// Start launches a sync job for req.ChannelID. The job outlives ctx; ctx
// only guards the hand-off.
func (m *Manager) Start(ctx context.Context, req SyncRequest) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rootCtx.Err() != nil {
		return Job{}, fmt.Errorf("sync manager stopped: %w", m.rootCtx.Err())
	}
	if existing, ok := m.running[req.ChannelID]; ok {
		return existing.snapshot(), fmt.Errorf("%w: %s", ErrSyncInProgress, req.ChannelID)
	}

	jobCtx, cancel := context.WithCancel(m.rootCtx)
	state := &jobState{
		job: Job{
			ID:        uuid.NewString(),
			ChannelID: req.ChannelID,
			Options:   req.Options.Normalize(),
			State:     JobRunning,
			Steps:     m.steps,
			StartedAt: m.now(),
		},
		cancel: cancel,
	}
	m.running[req.ChannelID] = state
	m.jobs.Set(state.job.ID, state)
	m.adjustStatus(func(s *SyncStatus) { s.Running++ })

	m.logger.Info("Channel sync started",
		"job_id", state.job.ID,
		"channel_id", req.ChannelID,
		"duration", m.duration.String(),
		"steps", m.steps)
	m.publisher.Publish(models.EventTypeChannelSyncStarted, models.EntityChannel, req.ChannelID,
		map[string]string{"jobId": state.job.ID})

	m.wg.Add(1)
	go m.run(jobCtx, state)

	return state.snapshot(), nil
}

// Get returns a snapshot of a job
func (m *Manager) Get(jobID string) (Job, error) {
	state, ok := m.jobs.Get(jobID)
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return state.snapshot(), nil
}

// Cancel stops a running job. Its result is never written. Cancelling a
// finished job returns it unchanged.
func (m *Manager) Cancel(jobID string) (Job, error) {
	state, ok := m.jobs.Get(jobID)
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	state.mu.Lock()
	if state.job.State != JobRunning {
		job := state.job
		state.mu.Unlock()
		return job, nil
	}
	m.finishLocked(state, JobCancelled, "")
	job := state.job
	state.mu.Unlock()

	state.cancel()
	m.release(state, job)

	m.logger.Info("Channel sync cancelled", "job_id", jobID, "channel_id", job.ChannelID)
	m.publisher.Publish(models.EventTypeChannelSyncCancelled, models.EntityChannel, job.ChannelID,
		map[string]string{"jobId": jobID})
	return job, nil
}

// GetSyncStatus returns the current sync status
func (m *Manager) GetSyncStatus() SyncStatus {
	m.statusMutex.RLock()
	defer m.statusMutex.RUnlock()
	return m.status
}

// Stop cancels every running job and waits for them to exit
func (m *Manager) Stop() {
	m.logger.Info("Stopping sync manager")

	m.mu.Lock()
	states := make([]*jobState, 0, len(m.running))
	for _, s := range m.running {
		states = append(states, s)
	}
	m.mu.Unlock()

	for _, s := range states {
		if _, err := m.Cancel(s.snapshot().ID); err != nil {
			m.logger.Warn("Failed to cancel sync job on shutdown", "error", err)
		}
	}

	m.rootCancel()
	m.wg.Wait()
	m.jobs.Stop()
}

// run advances the simulated transfer one step per tick
func (m *Manager) run(ctx context.Context, state *jobState) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.duration / time.Duration(m.steps))
	defer ticker.Stop()

	for step := 1; step <= m.steps; step++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		state.mu.Lock()
		if state.job.State != JobRunning {
			state.mu.Unlock()
			return
		}
		state.job.Step = step
		state.job.Progress = step * 100 / m.steps
		state.mu.Unlock()
	}

	// Claim the job before writing so a concurrent Cancel cannot also finish it
	state.mu.Lock()
	if state.job.State != JobRunning {
		state.mu.Unlock()
		return
	}
	m.finishLocked(state, JobSucceeded, "")
	job := state.job
	state.mu.Unlock()

	if err := m.recorder.RecordSync(ctx, job.ChannelID, *job.FinishedAt); err != nil {
		m.logger.Error("Failed to record channel sync", "job_id", job.ID, "channel_id", job.ChannelID, "error", err)

		state.mu.Lock()
		state.job.State = JobFailed
		state.job.Error = err.Error()
		job = state.job
		state.mu.Unlock()
	}

	m.release(state, job)

	if job.State == JobSucceeded {
		m.logger.Info("Channel sync completed", "job_id", job.ID, "channel_id", job.ChannelID)
		m.publisher.Publish(models.EventTypeChannelSyncCompleted, models.EntityChannel, job.ChannelID,
			map[string]string{"jobId": job.ID})
	}
}

// finishLocked marks the job terminal; the caller holds state.mu
func (m *Manager) finishLocked(state *jobState, final JobState, errMsg string) {
	finished := m.now()
	state.job.State = final
	state.job.FinishedAt = &finished
	state.job.Error = errMsg
	if final == JobSucceeded {
		state.job.Step = state.job.Steps
		state.job.Progress = 100
	}
}

// release removes the job from the running set and refreshes its retention
func (m *Manager) release(state *jobState, job Job) {
	m.mu.Lock()
	if m.running[job.ChannelID] == state {
		delete(m.running, job.ChannelID)
	}
	m.mu.Unlock()

	m.jobs.Set(job.ID, state)

	m.adjustStatus(func(s *SyncStatus) {
		s.Running--
		switch job.State {
		case JobSucceeded:
			s.Completed++
			s.LastSyncTime = *job.FinishedAt
			s.LastSyncSuccess = true
		case JobCancelled:
			s.Cancelled++
		case JobFailed:
			s.Failed++
			s.LastSyncSuccess = false
		}
	})
}

func (m *Manager) adjustStatus(fn func(*SyncStatus)) {
	m.statusMutex.Lock()
	defer m.statusMutex.Unlock()
	fn(&m.status)
}
