package indexnow

import (
	"context"
	"time"
)

// Attempt describes one outbound submission, successful or not.
type Attempt struct {
	Endpoint    string
	Host        string
	URLs        []string
	StatusCode  int
	Error       string
	Duration    time.Duration
	SubmittedAt time.Time
}

// Succeeded reports whether the attempt completed without error.
func (a Attempt) Succeeded() bool {
	return a.Error == ""
}

// Recorder persists submission attempts for auditing.
type Recorder interface {
	RecordSubmission(ctx context.Context, attempt Attempt) error
}
