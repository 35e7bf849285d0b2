package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"
	JobStatusFailed     = "failed"
)

// LessonJob tracks one asynchronous lesson generation run. Generation can
// take minutes across search, page reads, and several model calls, so the
// API hands back a job ID immediately and the frontend polls.
type LessonJob struct {
	ID        string        `json:"jobId"`
	Status    string        `json:"status"`
	Topic     string        `json:"topic"`
	Step      string        `json:"step,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Result    *LessonResult `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// LessonResult is the payload of a completed job.
type LessonResult struct {
	DeckID     int64    `json:"deckId,omitempty"`
	Flashcards int      `json:"flashcards"`
	Queries    []string `json:"queries,omitempty"`
	Skipped    []string `json:"skipped,omitempty"`
}

type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*LessonJob
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*LessonJob),
	}
}

func (m *JobManager) CreateJob(topic string) (string, *LessonJob) {
	job := &LessonJob{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Topic:     topic,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.ID, job.clone()
}

func (m *JobManager) GetJob(id string) (*LessonJob, bool) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

func (m *JobManager) MarkProcessing(id, step string) {
	m.withJob(id, func(job *LessonJob) {
		job.Status = JobStatusProcessing
		job.Step = step
	})
}

func (m *JobManager) MarkCompleted(id string, result LessonResult) {
	m.withJob(id, func(job *LessonJob) {
		job.Status = JobStatusComplete
		job.Step = ""
		job.Result = &result
	})
}

func (m *JobManager) MarkFailed(id string, msg string) {
	m.withJob(id, func(job *LessonJob) {
		job.Status = JobStatusFailed
		job.Step = ""
		job.Error = strings.TrimSpace(msg)
	})
}

func (m *JobManager) withJob(id string, fn func(job *LessonJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}

func (job *LessonJob) clone() *LessonJob {
	if job == nil {
		return nil
	}
	copyJob := *job
	if job.Result != nil {
		result := *job.Result
		copyJob.Result = &result
	}
	return &copyJob
}
