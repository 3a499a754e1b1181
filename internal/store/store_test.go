package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/dbcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.GetItem(ctx, "options")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem(ctx, "options", `{"timezone":"1"}`))
	v, ok, err := s.GetItem(ctx, "options")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"timezone":"1"}`, v)

	require.NoError(t, s.SetItem(ctx, "options", `{"timezone":"2"}`))
	v, _, err = s.GetItem(ctx, "options")
	require.NoError(t, err)
	assert.Equal(t, `{"timezone":"2"}`, v)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	assert.Equal(t, 1, m.Len())
}

func TestGorm(t *testing.T) {
	db, err := dbcore.Open(conf.Database{
		DatabaseType: "sqlite",
		DatabaseFile: filepath.Join(t.TempDir(), "store.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s := NewGorm(db)
	exerciseStore(t, s)

	// 绕过缓存，确认数据确实落盘
	fresh := NewGorm(db)
	v, ok, err := fresh.GetItem(context.Background(), "options")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"timezone":"2"}`, v)
}
