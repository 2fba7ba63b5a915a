package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// SnapshotBuilder rebuilds factsheet snapshots for all stored symbols
type SnapshotBuilder interface {
	RefreshAll() (int, error)
}

// SnapshotCleaner removes snapshots older than a cutoff
type SnapshotCleaner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// SnapshotRefreshJob rebuilds all factsheet snapshots and prunes stale ones
type SnapshotRefreshJob struct {
	builder   SnapshotBuilder
	cleaner   SnapshotCleaner
	retention time.Duration
	log       zerolog.Logger
}

// NewSnapshotRefreshJob creates the snapshot refresh job. Snapshots older
// than the retention window are deleted after each refresh; a zero retention
// disables pruning.
func NewSnapshotRefreshJob(builder SnapshotBuilder, cleaner SnapshotCleaner, retention time.Duration, log zerolog.Logger) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{
		builder:   builder,
		cleaner:   cleaner,
		retention: retention,
		log:       log.With().Str("job", "snapshot_refresh").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotRefreshJob) Name() string {
	return "snapshot_refresh"
}

// Run rebuilds snapshots for every symbol with price history
func (j *SnapshotRefreshJob) Run() error {
	started := time.Now()

	built, err := j.builder.RefreshAll()
	if err != nil {
		return err
	}

	if j.cleaner != nil && j.retention > 0 {
		cutoff := time.Now().Add(-j.retention)
		deleted, err := j.cleaner.DeleteOlderThan(cutoff)
		if err != nil {
			j.log.Warn().Err(err).Msg("Failed to prune old snapshots")
		} else if deleted > 0 {
			j.log.Info().Int64("deleted", deleted).Msg("Pruned old snapshots")
		}
	}

	j.log.Info().
		Int("built", built).
		Dur("elapsed", time.Since(started)).
		Msg("Snapshot refresh complete")

	return nil
}
