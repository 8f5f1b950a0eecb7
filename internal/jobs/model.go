package jobs

import "time"

// Job is a posting applicants can quick-apply to.
type Job struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Company   string    `yaml:"company"`
	Location  string    `yaml:"location"`
	CreatedAt time.Time `yaml:"-"`
	UpdatedAt time.Time `yaml:"-"`
}
