// Package reconcile removes resume artifacts that no application references.
// A quick-apply submission stores the resume before the record is written, so a
// failed record write leaves the resume behind.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"quickapply-backend/internal/shared/metrics"
	"quickapply-backend/internal/shared/storage/artifact"
	"quickapply-backend/internal/shared/telemetry"
)

// DefaultGrace keeps artifacts young enough to belong to an in-flight submission.
const DefaultGrace = 24 * time.Hour

// KeySource reports the resume keys referenced by stored applications.
type KeySource interface {
	ResumeKeys(ctx context.Context) (map[string]struct{}, error)
}

// Sweeper finds and deletes orphaned resumes.
type Sweeper struct {
	Store  artifact.Store
	Keys   KeySource
	Grace  time.Duration
	DryRun bool
	Now    func() time.Time
}

// Report summarizes one sweep.
type Report struct {
	Scanned    int
	Referenced int
	TooYoung   int
	Orphans    []string
	Deleted    int
	Failed     int
}

// Run lists the store before loading referenced keys, so a record written
// mid-sweep can only protect more artifacts, never fewer.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	var rep Report

	objects, err := s.Store.List(ctx, artifact.ResumePrefix)
	if err != nil {
		return rep, fmt.Errorf("list artifacts: %w", err)
	}
	referenced, err := s.Keys.ResumeKeys(ctx)
	if err != nil {
		return rep, fmt.Errorf("load resume keys: %w", err)
	}

	cutoff := s.now().Add(-s.grace())
	for _, obj := range objects {
		if !artifact.IsResumeKey(obj.Key) {
			continue
		}
		rep.Scanned++
		if _, ok := referenced[obj.Key]; ok {
			rep.Referenced++
			continue
		}
		if obj.ModifiedAt.After(cutoff) {
			rep.TooYoung++
			continue
		}
		rep.Orphans = append(rep.Orphans, obj.Key)
	}

	if !s.DryRun {
		for _, key := range rep.Orphans {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			if err := s.Store.Delete(ctx, key); err != nil {
				rep.Failed++
				telemetry.Warn("reconcile.delete_failed", map[string]any{"resume_key": key, "error": err})
				continue
			}
			rep.Deleted++
			telemetry.Info("reconcile.deleted", map[string]any{"resume_key": key})
		}
		metrics.AddOrphansDeleted(rep.Deleted)
	}

	telemetry.Info("reconcile.complete", map[string]any{
		"scanned":    rep.Scanned,
		"referenced": rep.Referenced,
		"too_young":  rep.TooYoung,
		"orphans":    len(rep.Orphans),
		"deleted":    rep.Deleted,
		"failed":     rep.Failed,
		"dry_run":    s.DryRun,
	})
	return rep, nil
}

func (s *Sweeper) grace() time.Duration {
	if s.Grace > 0 {
		return s.Grace
	}
	return DefaultGrace
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
