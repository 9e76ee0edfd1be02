package operations

import (
	"log/slog"
	"sync"
	"time"

	"sharkclean/pkg/contracts/events"
)

// Hub fans a message out to every connected client
type Hub interface {
	Publish(msg events.Message)
}

// StatusBroadcaster is the single authority for job progress. It keeps the
// latest snapshot of every job and publishes the whole snapshot after each
// change, so clients never merge partial updates.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	jobs    map[string]*events.JobSnapshot
	hub     Hub
	logger  *slog.Logger
	updates chan updateRequest
	stop    chan struct{}
	once    sync.Once
}

type updateRequest struct {
	jobID      string
	updateFunc func(*events.JobSnapshot)
	done       chan struct{}
}

// NewStatusBroadcaster creates a broadcaster. hub may be nil, in which case
// snapshots are only kept for polling.
func NewStatusBroadcaster(hub Hub, logger *slog.Logger) *StatusBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}

	sb := &StatusBroadcaster{
		jobs:    make(map[string]*events.JobSnapshot),
		hub:     hub,
		logger:  logger.With(slog.String("component", "status_broadcaster")),
		updates: make(chan updateRequest, 100),
		stop:    make(chan struct{}),
	}
	go sb.processUpdates()
	return sb
}

// processUpdates applies updates one at a time
func (sb *StatusBroadcaster) processUpdates() {
	for {
		select {
		case <-sb.stop:
			return
		case req := <-sb.updates:
			sb.handleUpdate(req)
		}
	}
}

func (sb *StatusBroadcaster) handleUpdate(req updateRequest) {
	defer close(req.done)

	sb.mu.Lock()
	snapshot, exists := sb.jobs[req.jobID]
	if !exists {
		now := time.Now()
		snapshot = &events.JobSnapshot{
			JobID:     req.jobID,
			Status:    events.StatusPending,
			StartedAt: now,
			Steps:     []events.StepSnapshot{},
		}
		sb.jobs[req.jobID] = snapshot
	}

	req.updateFunc(snapshot)
	snapshot.UpdatedAt = time.Now()

	if len(snapshot.Steps) > 0 && !events.IsTerminal(snapshot.Status) {
		total := 0
		for _, step := range snapshot.Steps {
			total += step.Progress
		}
		snapshot.Progress = total / len(snapshot.Steps)
	}

	if events.IsTerminal(snapshot.Status) && snapshot.CompletedAt == nil {
		now := time.Now()
		snapshot.CompletedAt = &now
		snapshot.ETA = ""
	}

	published := cloneSnapshot(snapshot)
	sb.mu.Unlock()

	sb.publish(published)
}

func (sb *StatusBroadcaster) publish(snapshot *events.JobSnapshot) {
	if sb.hub == nil {
		return
	}

	sb.logger.Debug("broadcasting job snapshot",
		slog.String("job_id", snapshot.JobID),
		slog.String("status", snapshot.Status),
		slog.Int("progress", snapshot.Progress),
		slog.String("current_step", snapshot.CurrentStep),
	)

	sb.hub.Publish(events.Message{
		Type:      events.MessageTypeJobSnapshot,
		Data:      snapshot,
		Timestamp: snapshot.UpdatedAt,
	})
}

// UpdateStatus applies updateFunc to a job's snapshot and publishes the
// result. It returns once the snapshot has been published.
func (sb *StatusBroadcaster) UpdateStatus(jobID string, updateFunc func(*events.JobSnapshot)) {
	req := updateRequest{
		jobID:      jobID,
		updateFunc: updateFunc,
		done:       make(chan struct{}),
	}

	select {
	case sb.updates <- req:
	case <-sb.stop:
		return
	}
	select {
	case <-req.done:
	case <-sb.stop:
	}
}

// CreateJob registers a job and its ordered step names
func (sb *StatusBroadcaster) CreateJob(jobID, input string, steps []string) {
	sb.UpdateStatus(jobID, func(s *events.JobSnapshot) {
		s.Input = input
		s.Status = events.StatusPending
		s.Progress = 0
		s.Steps = make([]events.StepSnapshot, len(steps))
		for i, name := range steps {
			s.Steps[i] = events.StepSnapshot{Name: name, Status: events.StatusPending}
		}
		s.Message = "Job queued"
	})
}

// StartJob marks a job as running
func (sb *StatusBroadcaster) StartJob(jobID string) {
	sb.UpdateStatus(jobID, func(s *events.JobSnapshot) {
		s.Status = events.StatusRunning
		s.StartedAt = time.Now()
		s.Message = "Job started"
	})
}

// UpdateStep records a step transition. Unknown step names are appended so
// progress never stalls on a naming mismatch. A running step is never moved
// back to pending.
func (sb *StatusBroadcaster) UpdateStep(jobID, step, status, message string, metadata map[string]interface{}) {
	sb.UpdateStatus(jobID, func(s *events.JobSnapshot) {
		idx := -1
		for i := range s.Steps {
			if s.Steps[i].Name == step {
				idx = i
				break
			}
		}
		if idx < 0 {
			s.Steps = append(s.Steps, events.StepSnapshot{Name: step})
			idx = len(s.Steps) - 1
		}

		st := &s.Steps[idx]
		if status == events.StatusPending && st.Status == events.StatusRunning {
			return
		}
		st.Status = status
		st.Message = message
		if metadata != nil {
			st.Metadata = metadata
		}

		switch status {
		case events.StatusRunning:
			st.Progress = 0
			s.CurrentStep = step
		case events.StatusCompleted, events.StatusSkipped:
			st.Progress = 100
			if s.CurrentStep == step {
				s.CurrentStep = ""
			}
		case events.StatusFailed:
			st.Error = message
		}
	})
}

// SetETA records the estimated time remaining
func (sb *StatusBroadcaster) SetETA(jobID, eta string) {
	sb.UpdateStatus(jobID, func(s *events.JobSnapshot) {
		s.ETA = eta
	})
}

// CompleteJob marks a job as completed
func (sb *StatusBroadcaster) CompleteJob(jobID, message string) {
	sb.UpdateStatus(jobID, func(s *events.JobSnapshot) {
		s.Status = events.StatusCompleted
		s.Progress = 100
		s.CurrentStep = ""
		s.Message = message
		for i := range s.Steps {
			if s.Steps[i].Status == events.StatusPending || s.Steps[i].Status == events.StatusRunning {
				s.Steps[i].Status = events.StatusCompleted
				s.Steps[i].Progress = 100
			}
		}
	})
}

// FailJob marks a job as failed
func (sb *StatusBroadcaster) FailJob(jobID string, err error) {
	sb.UpdateStatus(jobID, func(s *events.JobSnapshot) {
		s.Status = events.StatusFailed
		s.Error = err.Error()
		s.Message = "Job failed"
		for i := range s.Steps {
			if s.Steps[i].Name == s.CurrentStep && s.Steps[i].Status == events.StatusRunning {
				s.Steps[i].Status = events.StatusFailed
				s.Steps[i].Error = err.Error()
			}
		}
		s.CurrentStep = ""
	})
}

// CancelJob marks a job as cancelled
func (sb *StatusBroadcaster) CancelJob(jobID string) {
	sb.UpdateStatus(jobID, func(s *events.JobSnapshot) {
		s.Status = events.StatusCancelled
		s.CurrentStep = ""
		s.Message = "Job cancelled"
	})
}

// Snapshot returns a copy of the current snapshot for a job
func (sb *StatusBroadcaster) Snapshot(jobID string) (*events.JobSnapshot, bool) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	snapshot, exists := sb.jobs[jobID]
	if !exists {
		return nil, false
	}
	return cloneSnapshot(snapshot), true
}

// Snapshots returns copies of every tracked job
func (sb *StatusBroadcaster) Snapshots() []*events.JobSnapshot {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	out := make([]*events.JobSnapshot, 0, len(sb.jobs))
	for _, snapshot := range sb.jobs {
		out = append(out, cloneSnapshot(snapshot))
	}
	return out
}

// Forget drops a job's snapshot
func (sb *StatusBroadcaster) Forget(jobID string) {
	sb.mu.Lock()
	delete(sb.jobs, jobID)
	sb.mu.Unlock()
}

// Cleanup removes finished jobs older than maxAge and returns how many
func (sb *StatusBroadcaster) Cleanup(maxAge time.Duration) int {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, snapshot := range sb.jobs {
		if events.IsTerminal(snapshot.Status) && snapshot.CompletedAt != nil && now.Sub(*snapshot.CompletedAt) > maxAge {
			delete(sb.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		sb.logger.Info("cleaned up finished job snapshots", slog.Int("removed", removed))
	}
	return removed
}

// Stop shuts the update loop down. Later updates are dropped.
func (sb *StatusBroadcaster) Stop() {
	sb.once.Do(func() { close(sb.stop) })
}

func cloneSnapshot(s *events.JobSnapshot) *events.JobSnapshot {
	c := *s
	c.Steps = make([]events.StepSnapshot, len(s.Steps))
	copy(c.Steps, s.Steps)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
