package media

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CleanupStatus represents the status of a cleanup job
type CleanupStatus string

const (
	CleanupPending   CleanupStatus = "pending"
	CleanupRunning   CleanupStatus = "running"
	CleanupCompleted CleanupStatus = "completed"
	CleanupFailed    CleanupStatus = "failed"
)

// CleanupJob is one scheduled folder deletion on the media host.
type CleanupJob struct {
	ID          string        `json:"id"`
	Folder      string        `json:"folder"`
	Status      CleanupStatus `json:"status"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

const (
	cleanupTimeout = 2 * time.Minute
	// jobRetention is how long finished jobs stay inspectable before pruning.
	jobRetention = 30 * time.Minute
)

// Cleanup runs compensating media deletions detached from the request cycle.
// Jobs are fire-and-forget: their outcome is never observed by the caller and
// every failure is swallowed here. Deletion is idempotent, so "resource not
// found" and "bad request" from the host count as success (the desired end
// state, an absent resource, already holds).
type Cleanup struct {
	host    Host
	logger  *logrus.Logger
	jobs    map[string]*CleanupJob
	jobsMux sync.RWMutex
	wg      sync.WaitGroup
}

// NewCleanup creates a cleanup queue over the given media host.
func NewCleanup(host Host, logger *logrus.Logger) *Cleanup {
	return &Cleanup{
		host:   host,
		logger: logger,
		jobs:   make(map[string]*CleanupJob),
	}
}

// Schedule enqueues deletion of a media folder and returns immediately. The
// job runs in the background after the user-facing response has been
// committed.
func (c *Cleanup) Schedule(folder string) *CleanupJob {
	job := &CleanupJob{
		ID:        uuid.New().String(),
		Folder:    folder,
		Status:    CleanupPending,
		CreatedAt: time.Now(),
	}

	c.jobsMux.Lock()
	c.jobs[job.ID] = job
	c.jobsMux.Unlock()

	c.wg.Add(1)
	go c.process(job)

	return job
}

func (c *Cleanup) process(job *CleanupJob) {
	defer c.wg.Done()

	c.updateJobStatus(job.ID, CleanupRunning, "")

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	err := c.host.DeleteFolder(ctx, job.Folder)
	switch {
	case err == nil:
		c.updateJobStatus(job.ID, CleanupCompleted, "")
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRejected):
		// Already absent; that is the state we wanted
		c.logger.WithField("folder", job.Folder).WithError(err).Debug("Media cleanup found nothing to delete")
		c.updateJobStatus(job.ID, CleanupCompleted, "")
	default:
		c.logger.WithField("folder", job.Folder).WithError(err).Warn("Media cleanup failed")
		c.updateJobStatus(job.ID, CleanupFailed, err.Error())
	}

	c.CleanupCompletedJobs(jobRetention)
}

// CleanupCompletedJobs removes terminal jobs that finished longer than
// olderThan ago, so the job map does not grow for the life of the process.
// Returns how many jobs were pruned.
func (c *Cleanup) CleanupCompletedJobs(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	c.jobsMux.Lock()
	defer c.jobsMux.Unlock()

	removed := 0
	for id, job := range c.jobs {
		if job.Status != CleanupCompleted && job.Status != CleanupFailed {
			continue
		}
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(c.jobs, id)
			removed++
		}
	}
	return removed
}

func (c *Cleanup) updateJobStatus(id string, status CleanupStatus, errMsg string) {
	c.jobsMux.Lock()
	defer c.jobsMux.Unlock()

	job, exists := c.jobs[id]
	if !exists {
		return
	}
	job.Status = status
	job.Error = errMsg
	if status == CleanupCompleted || status == CleanupFailed {
		now := time.Now()
		job.CompletedAt = &now
	}
}

// GetJob returns a copy of a job's current state.
func (c *Cleanup) GetJob(id string) (CleanupJob, bool) {
	c.jobsMux.RLock()
	defer c.jobsMux.RUnlock()

	job, exists := c.jobs[id]
	if !exists {
		return CleanupJob{}, false
	}
	return *job, true
}

// Wait blocks until every scheduled job has finished. Used at shutdown so
// in-flight deletions get a chance to complete.
func (c *Cleanup) Wait() {
	c.wg.Wait()
}
