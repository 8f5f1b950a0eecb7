package tracking

import (
	"fmt"
	"strings"
)

// View is the public tracking representation of an application.
type View struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	JobTitle  string `json:"jobTitle"`
	Company   string `json:"company"`
	Status    string `json:"status"`
	AppliedAt string `json:"appliedAt"`
	ResumeURL string `json:"resumeUrl"`
	PDFURL    string `json:"pdfUrl,omitempty"`
}

// check enforces the fields every view must carry.
func (v View) check() error {
	required := []struct{ name, value string }{
		{"name", v.Name},
		{"email", v.Email},
		{"jobTitle", v.JobTitle},
		{"company", v.Company},
		{"status", v.Status},
		{"appliedAt", v.AppliedAt},
		{"resumeUrl", v.ResumeURL},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %w: missing %s", ErrPersistence, ErrIncompleteRecord, strings.Join(missing, ", "))
	}
	return nil
}
