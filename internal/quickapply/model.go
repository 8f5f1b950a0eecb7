package quickapply

import "io"

// Stage is a step of the submission pipeline.
type Stage string

const (
	StageReceived  Stage = "received"
	StageValidated Stage = "validated"
	StageStored    Stage = "stored"
	StageRecorded  Stage = "recorded"
	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
)

// Submission is one quick-apply request.
type Submission struct {
	JobID    string
	Name     string
	Email    string
	Phone    string
	Message  string
	FileName string
	File     io.Reader
	// FileSize is the declared upload size in bytes.
	FileSize  int64
	RequestID string
}

// Result is returned for a completed submission.
type Result struct {
	TrackToken    string
	ApplicationID string
	ResumeKey     string
}
