package jobqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType defines the type of job
type JobType string

const (
	JobTypePostCreated JobType = "blog_post_created"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusFailed     JobStatus = "failed"
)

// Job is the envelope stored under job:<id>. Payload keeps the raw JSON so
// typed payloads decode without passing through float64.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Status    JobStatus       `json:"status"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	ErrorMsg  string          `json:"error_msg,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
}

// PostCreatedJobPayload references the post that was just committed
type PostCreatedJobPayload struct {
	PostID uint64 `json:"post_id"`
}

// NewJob builds a pending job with a fresh id
func NewJob(jobType JobType, payload any, now time.Time) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", jobType, err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    JobStatusPending,
		Payload:   raw,
		CreatedAt: now,
	}, nil
}

// DecodePayload unmarshals the payload into v
func (j *Job) DecodePayload(v any) error {
	if len(j.Payload) == 0 {
		return fmt.Errorf("job %s has no payload", j.ID)
	}
	return json.Unmarshal(j.Payload, v)
}

func (j *Job) start(now time.Time) {
	j.Status = JobStatusProcessing
	j.StartedAt = &now
	j.Attempts++
}

func (j *Job) fail(err error) {
	j.Status = JobStatusFailed
	j.ErrorMsg = err.Error()
}

func (j *Job) release() {
	j.Status = JobStatusPending
	j.StartedAt = nil
}

// runningSince falls back to CreatedAt for jobs written without a start time
func (j *Job) runningSince() time.Time {
	if j.StartedAt != nil && !j.StartedAt.IsZero() {
		return *j.StartedAt
	}
	return j.CreatedAt
}
