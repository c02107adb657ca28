package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestRepository opens a repository backed by a throwaway database file.
func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})

	return repo
}

// TestLastRun_Empty verifies ErrNotFound for an empty history.
func TestLastRun_Empty(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)

	run, err := repo.LastRun(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, run)
}

// TestRecordRun_Roundtrip ensures a recorded run is returned by LastRun.
func TestRecordRun_Roundtrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	want := &Run{
		ID:        uuid.NewString(),
		Tag:       "1.2.3",
		BuildCode: "123",
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, repo.RecordRun(ctx, want))

	got, err := repo.LastRun(ctx)
	require.NoError(t, err)
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Tag, got.Tag)
	require.Equal(t, want.BuildCode, got.BuildCode)
	require.False(t, got.Published)
	require.Equal(t, want.StartedAt.Unix(), got.StartedAt.Unix())
}

// TestMarkPublished flips the published flag and rejects unknown runs.
func TestMarkPublished(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	run := &Run{
		ID:        uuid.NewString(),
		Tag:       "2.0.0-beta",
		BuildCode: "200-beta",
		StartedAt: time.Now().UTC(),
	}

	require.NoError(t, repo.RecordRun(ctx, run))
	require.NoError(t, repo.MarkPublished(ctx, run.ID))

	got, err := repo.LastRun(ctx)
	require.NoError(t, err)
	require.True(t, got.Published)

	require.ErrorIs(t, repo.MarkPublished(ctx, uuid.NewString()), ErrNotFound)
}
