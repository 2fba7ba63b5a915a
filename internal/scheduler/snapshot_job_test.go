package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuilder struct {
	built int
	err   error
	calls int
}

func (f *fakeBuilder) RefreshAll() (int, error) {
	f.calls++
	return f.built, f.err
}

type fakeCleaner struct {
	deleted int64
	cutoffs []time.Time
}

func (f *fakeCleaner) DeleteOlderThan(cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, nil
}

func TestSnapshotRefreshJob_RunBuildsAndPrunes(t *testing.T) {
	builder := &fakeBuilder{built: 3}
	cleaner := &fakeCleaner{deleted: 2}
	job := NewSnapshotRefreshJob(builder, cleaner, 30*24*time.Hour, zerolog.Nop())

	err := job.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, builder.calls)
	require.Len(t, cleaner.cutoffs, 1)
	// Cutoff should be roughly retention ago
	expected := time.Now().Add(-30 * 24 * time.Hour)
	assert.WithinDuration(t, expected, cleaner.cutoffs[0], time.Minute)
}

func TestSnapshotRefreshJob_ZeroRetentionSkipsPruning(t *testing.T) {
	builder := &fakeBuilder{built: 1}
	cleaner := &fakeCleaner{}
	job := NewSnapshotRefreshJob(builder, cleaner, 0, zerolog.Nop())

	require.NoError(t, job.Run())
	assert.Empty(t, cleaner.cutoffs)
}

func TestSnapshotRefreshJob_PropagatesBuildError(t *testing.T) {
	builder := &fakeBuilder{err: fmt.Errorf("no symbols")}
	job := NewSnapshotRefreshJob(builder, nil, 0, zerolog.Nop())

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symbols")
}

func TestScheduler_AddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &SnapshotRefreshJob{log: zerolog.Nop()})
	assert.Error(t, err)
}

func TestScheduler_RunNowExecutesImmediately(t *testing.T) {
	builder := &fakeBuilder{built: 5}
	job := NewSnapshotRefreshJob(builder, nil, 0, zerolog.Nop())

	s := New(zerolog.Nop())
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, builder.calls)
}
