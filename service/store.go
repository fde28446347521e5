package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AnTengye/recscan/model"
)

// JobStore keeps scan jobs in memory. Results are not persisted across restarts.
type JobStore struct {
	jobs    map[string]*model.ScanJob
	mu      sync.RWMutex
	maxJobs int // Maximum jobs to keep, 0 = unlimited
}

func NewJobStore(maxJobs int) *JobStore {
	if maxJobs < 0 {
		maxJobs = 0
	}
	slog.Info("job store initialized", "max_jobs", maxJobs)
	return &JobStore{
		jobs:    make(map[string]*model.ScanJob),
		maxJobs: maxJobs,
	}
}

func (s *JobStore) Save(job *model.ScanJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.UpdatedAt = time.Now()
	s.jobs[job.ID] = job

	s.cleanupIfNeeded()
}

// Get returns a copy of the job so callers can read it while a scan updates the original.
func (s *JobStore) Get(id string) *model.ScanJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	cp := *j
	return &cp
}

// List returns copies of all jobs, newest first.
func (s *JobStore) List() []*model.ScanJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.ScanJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out
}

// Delete removes a job and reports whether it existed.
func (s *JobStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}

func (s *JobStore) UpdateStatus(id, status string, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = status
		j.ErrorMsg = errMsg
		j.UpdatedAt = time.Now()
	}
}

// Complete stores a finished scan's results and exported workbook.
func (s *JobStore) Complete(id string, results model.ResultTable, artifact []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Results = results
		j.Artifact = artifact
		j.Status = model.JobCompleted
		j.UpdatedAt = time.Now()
	}
}

// cleanupIfNeeded removes the oldest jobs beyond maxJobs.
// Must be called with lock held
func (s *JobStore) cleanupIfNeeded() {
	if s.maxJobs <= 0 || len(s.jobs) <= s.maxJobs {
		return
	}

	jobs := make([]*model.ScanJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
	})

	removeCount := len(jobs) - s.maxJobs
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old scan job",
			"job_id", jobs[i].ID,
			"created_at", jobs[i].CreatedAt,
		)
		delete(s.jobs, jobs[i].ID)
	}
}

func (s *JobStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
