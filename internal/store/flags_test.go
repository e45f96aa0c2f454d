package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"themegate/internal/rollout"
	"themegate/internal/theme"
)

func newTestStore(t *testing.T) *FlagStore {
	t.Helper()
	s, err := NewFlagStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFlagStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, rollout.KeyMaxFxQuality)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, rollout.KeyMaxFxQuality, "2", "ops"))
	v, err := s.Get(ctx, rollout.KeyMaxFxQuality)
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	require.NoError(t, s.Set(ctx, rollout.KeyMaxFxQuality, "1", "ops"))
	v, err = s.Get(ctx, rollout.KeyMaxFxQuality)
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, s.Delete(ctx, rollout.KeyMaxFxQuality, ""))
	_, err = s.Get(ctx, rollout.KeyMaxFxQuality)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, rollout.KeyMaxFxQuality, ""), "deleting twice is a no-op")
}

func TestFlagStore_SetRejectsEmptyKey(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Set(context.Background(), "  ", "x", ""))
}

func TestFlagStore_History(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, s.Set(ctx, rollout.KeyEnabledThemes, "chibi", "alice"))
	require.NoError(t, s.Set(ctx, rollout.KeyEnabledThemes, "chibi", "alice"), "same value adds no history")
	require.NoError(t, s.Set(ctx, rollout.KeyEnabledThemes, "chibi,royal", ""))
	require.NoError(t, s.SetFlag(ctx, rollout.KeyBaselineFxOnly, "true"))
	require.NoError(t, s.Delete(ctx, rollout.KeyEnabledThemes, "bob"))

	all, err := s.History(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, rollout.KeyEnabledThemes, all[0].Key)
	assert.True(t, all[0].Deleted)
	assert.Equal(t, "chibi,royal", all[0].OldValue)
	assert.Equal(t, "bob", all[0].Actor)

	themes, err := s.History(ctx, rollout.KeyEnabledThemes, 2)
	require.NoError(t, err)
	require.Len(t, themes, 2)
	assert.Equal(t, "chibi", themes[1].OldValue)
	assert.Equal(t, "chibi,royal", themes[1].Value)
	assert.Equal(t, DefaultActor, themes[1].Actor)

	first := all[len(all)-1]
	assert.Empty(t, first.OldValue)
	assert.Equal(t, "alice", first.Actor)
	assert.True(t, base.Add(time.Minute).Equal(first.ChangedAt))

	empty, err := s.History(ctx, "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)
}

func TestFlagStore_DrivesRolloutController(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var _ rollout.FlagSource = s
	var _ rollout.FlagWriter = s

	require.NoError(t, s.Set(ctx, rollout.KeyEnabledThemes, "cyberpunk,chibi", ""))

	c := rollout.NewController(s, nil)
	require.NoError(t, c.Reload(ctx))
	rt := c.Resolve(rollout.Request{ThemeID: "royal", FxQuality: theme.FxHigh})
	assert.Equal(t, theme.Chibi, rt.ThemeID)
	assert.True(t, rt.ThemeBlocked)

	w, ok := c.Writer()
	require.True(t, ok)
	require.NoError(t, w.SetFlag(ctx, rollout.KeyBaselineFxOnly, "yes"))
	require.NoError(t, c.Reload(ctx))
	assert.True(t, c.Config().BaselineFxOnly)
}

func TestFlagStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "flags.db")

	s, err := NewFlagStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, rollout.KeyMaxFxQuality, "1", ""))
	require.NoError(t, s.Close())

	s, err = NewFlagStore(path)
	require.NoError(t, err)
	defer s.Close()

	flags, err := s.LoadFlags(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{rollout.KeyMaxFxQuality: "1"}, flags)
	assert.Equal(t, path, s.Path())
}

func TestRunMigrations_AddsActorColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE flag_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL,
		old_value TEXT,
		new_value TEXT,
		changed_at INTEGER NOT NULL
	)`)
	require.NoError(t, err)
	assert.False(t, columnExists(db, "flag_history", "actor"))
	require.NoError(t, db.Close())

	s, err := NewFlagStore(path)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, columnExists(s.db, "flag_history", "actor"))
	require.NoError(t, s.Set(context.Background(), rollout.KeyMaxFxQuality, "3", "ops"))

	require.NoError(t, RunMigrations(s.db), "migrations are idempotent")
}
