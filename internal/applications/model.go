package applications

import "time"

// Status is the review state of an application.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusReviewed  Status = "reviewed"
	StatusRejected  Status = "rejected"
	StatusAccepted  Status = "accepted"
)

var transitions = map[Status][]Status{
	StatusSubmitted: {StatusReviewed, StatusRejected, StatusAccepted},
	StatusReviewed:  {StatusRejected, StatusAccepted},
}

// ParseStatus returns the Status named by s.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusSubmitted, StatusReviewed, StatusRejected, StatusAccepted:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether an application may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Application is a quick-apply submission for a job.
type Application struct {
	ID         string    `json:"id"`
	JobID      string    `json:"jobId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Message    string    `json:"message"`
	ResumeKey  string    `json:"resumeKey"`
	SummaryKey string    `json:"summaryKey,omitempty"`
	Status     Status    `json:"status"`
	TrackToken string    `json:"-"`
	AppliedAt  time.Time `json:"appliedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewApplication holds the caller-supplied fields of an application.
type NewApplication struct {
	JobID     string
	Name      string
	Email     string
	Phone     string
	Message   string
	ResumeKey string
}
