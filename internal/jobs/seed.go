package jobs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Jobs []Job `yaml:"jobs"`
}

// ParseSeed decodes a YAML document of the form:
//
//	jobs:
//	  - id: job-123
//	    title: Backend Engineer
//	    company: Acme
//	    location: Remote
func ParseSeed(r io.Reader) ([]Job, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode job seed: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Jobs))
	for i := range doc.Jobs {
		job := &doc.Jobs[i]
		job.ID = strings.TrimSpace(job.ID)
		job.Title = strings.TrimSpace(job.Title)
		job.Company = strings.TrimSpace(job.Company)
		job.Location = strings.TrimSpace(job.Location)
		if err := validate(*job); err != nil {
			return nil, fmt.Errorf("job seed entry %d: %w", i, err)
		}
		if _, dup := seen[job.ID]; dup {
			return nil, fmt.Errorf("job seed entry %d: %w: duplicate id %q", i, ErrInvalidInput, job.ID)
		}
		seen[job.ID] = struct{}{}
	}
	return doc.Jobs, nil
}

// LoadSeedFile reads and parses a YAML seed file.
func LoadSeedFile(path string) ([]Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open job seed: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// Seed upserts every job into repo and returns how many were written.
func Seed(ctx context.Context, repo Repo, jobs []Job) (int, error) {
	for i, job := range jobs {
		if err := repo.Upsert(ctx, job); err != nil {
			return i, fmt.Errorf("seed job %s: %w", job.ID, err)
		}
	}
	return len(jobs), nil
}

func validate(job Job) error {
	switch {
	case strings.TrimSpace(job.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	case strings.TrimSpace(job.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case strings.TrimSpace(job.Company) == "":
		return fmt.Errorf("%w: company is required", ErrInvalidInput)
	}
	return nil
}
