package applications

import "time"

// ApplicationResponse is the admin representation of an application.
type ApplicationResponse struct {
	ApplicationID string    `json:"applicationId"`
	JobID         string    `json:"jobId"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Message       string    `json:"message"`
	Status        Status    `json:"status"`
	ResumeKey     string    `json:"resumeKey"`
	HasSummary    bool      `json:"hasSummary"`
	AppliedAt     time.Time `json:"appliedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func toResponse(app Application) ApplicationResponse {
	return ApplicationResponse{
		ApplicationID: app.ID,
		JobID:         app.JobID,
		Name:          app.Name,
		Email:         app.Email,
		Phone:         app.Phone,
		Message:       app.Message,
		Status:        app.Status,
		ResumeKey:     app.ResumeKey,
		HasSummary:    app.SummaryKey != "",
		AppliedAt:     app.AppliedAt,
		UpdatedAt:     app.UpdatedAt,
	}
}
