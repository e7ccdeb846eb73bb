package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/parol/internal/models"
	"github.com/atinyakov/parol/internal/service"
	"github.com/atinyakov/parol/internal/storage"
)

type mockRepo struct {
	LoadFunc   func(ctx context.Context, password string) (*models.Collection, error)
	UpdateFunc func(ctx context.Context, password string, fn func(*models.Collection) error) error
	RekeyFunc  func(ctx context.Context, oldPassword, newPassword string) error
}

func (m *mockRepo) Load(ctx context.Context, password string) (*models.Collection, error) {
	return m.LoadFunc(ctx, password)
}
func (m *mockRepo) Update(ctx context.Context, password string, fn func(*models.Collection) error) error {
	return m.UpdateFunc(ctx, password, fn)
}
func (m *mockRepo) Rekey(ctx context.Context, oldPassword, newPassword string) error {
	return m.RekeyFunc(ctx, oldPassword, newPassword)
}

// memRepo keeps one collection in memory and applies updates to it.
func memRepo(c *models.Collection) *mockRepo {
	return &mockRepo{
		LoadFunc: func(context.Context, string) (*models.Collection, error) {
			return models.NewCollectionFrom(c.Records()), nil
		},
		UpdateFunc: func(_ context.Context, _ string, fn func(*models.Collection) error) error {
			work := models.NewCollectionFrom(c.Records())
			if err := fn(work); err != nil {
				return err
			}
			*c = *work
			return nil
		},
	}
}

func seeded() *models.Collection {
	c := models.NewCollection()
	c.Push(models.NewRecordWithFields("mail", "alice", "p1", ""))
	c.Push(models.NewRecordWithFields("bank", "alice", "p2", "note"))
	return c
}

func TestList(t *testing.T) {
	k := service.NewKeeper(memRepo(seeded()), nil)
	got, err := k.List(context.Background(), "pw")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bank", got[1].Application)
}

func TestList_NoDatabase(t *testing.T) {
	repo := &mockRepo{
		LoadFunc: func(context.Context, string) (*models.Collection, error) {
			return nil, storage.ErrNoDatabase
		},
	}
	got, err := service.NewKeeper(repo, nil).List(context.Background(), "pw")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestList_CannotOpen(t *testing.T) {
	repo := &mockRepo{
		LoadFunc: func(context.Context, string) (*models.Collection, error) {
			return nil, storage.ErrCannotOpen
		},
	}
	_, err := service.NewKeeper(repo, nil).List(context.Background(), "pw")
	assert.ErrorIs(t, err, storage.ErrCannotOpen)
}

func TestGet(t *testing.T) {
	k := service.NewKeeper(memRepo(seeded()), nil)

	r, err := k.Get(context.Background(), "pw", 0)
	require.NoError(t, err)
	assert.Equal(t, "mail", r.Application)

	_, err = k.Get(context.Background(), "pw", 2)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGet_NoDatabase(t *testing.T) {
	repo := &mockRepo{
		LoadFunc: func(context.Context, string) (*models.Collection, error) {
			return nil, storage.ErrNoDatabase
		},
	}
	_, err := service.NewKeeper(repo, nil).Get(context.Background(), "pw", 0)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAdd(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c := seeded()
	k := service.NewKeeper(memRepo(c), zap.New(core))

	n, err := k.Add(context.Background(), "pw", models.NewRecordWithFields("vpn", "bob", "p3", ""))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, logs.FilterMessage("record added").Len())
	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			assert.NotEqual(t, "p3", f.String, "password leaked into logs")
		}
	}
}

func TestAdd_RepoError(t *testing.T) {
	wantErr := errors.New("disk full")
	repo := &mockRepo{
		UpdateFunc: func(context.Context, string, func(*models.Collection) error) error {
			return wantErr
		},
	}
	_, err := service.NewKeeper(repo, nil).Add(context.Background(), "pw", models.NewRecord())
	assert.ErrorIs(t, err, wantErr)
}

func TestEdit(t *testing.T) {
	c := seeded()
	k := service.NewKeeper(memRepo(c), nil)

	require.NoError(t, k.Edit(context.Background(), "pw", 1, models.NewRecordWithFields("bank", "alice", "p9", "rotated")))
	r, _ := c.Get(1)
	assert.Equal(t, "p9", r.Password)

	err := k.Edit(context.Background(), "pw", 5, models.NewRecord())
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, err, models.ErrOutOfBounds)
}

func TestReplace(t *testing.T) {
	c := seeded()
	k := service.NewKeeper(memRepo(c), nil)
	ctx := context.Background()
	old := models.NewRecordWithFields("bank", "alice", "p2", "note")
	next := models.NewRecordWithFields("bank", "alice", "p9", "")

	require.NoError(t, k.Replace(ctx, "pw", 1, old, next))
	r, _ := c.Get(1)
	assert.Equal(t, next, r)

	// Record 1 no longer equals old, so a stale edit must not land.
	err := k.Replace(ctx, "pw", 1, old, models.NewRecordWithFields("x", "", "", ""))
	assert.ErrorIs(t, err, service.ErrChanged)
	r, _ = c.Get(1)
	assert.Equal(t, next, r)

	// Indices shifted by a concurrent remove.
	_, err = k.Remove(ctx, "pw", 0)
	require.NoError(t, err)
	err = k.Replace(ctx, "pw", 1, next, old)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, 1, c.Len())
}

func TestRemove(t *testing.T) {
	c := seeded()
	k := service.NewKeeper(memRepo(c), nil)

	removed, err := k.Remove(context.Background(), "pw", 0)
	require.NoError(t, err)
	assert.Equal(t, "mail", removed.Application)
	assert.Equal(t, 1, c.Len())

	_, err = k.Remove(context.Background(), "pw", 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, 1, c.Len())
}

func TestImport(t *testing.T) {
	c := seeded()
	k := service.NewKeeper(memRepo(c), nil)

	n, err := k.Import(context.Background(), "pw", []models.Record{
		models.NewRecordWithFields("a", "", "", ""),
		models.NewRecordWithFields("b", "", "", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	last, _ := c.Get(3)
	assert.Equal(t, "b", last.Application)

	n, err = k.Import(context.Background(), "pw", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestChangePassword(t *testing.T) {
	var gotOld, gotNew string
	repo := &mockRepo{
		RekeyFunc: func(_ context.Context, o, n string) error {
			gotOld, gotNew = o, n
			return nil
		},
	}
	require.NoError(t, service.NewKeeper(repo, nil).ChangePassword(context.Background(), "old", "new"))
	assert.Equal(t, "old", gotOld)
	assert.Equal(t, "new", gotNew)
}

func TestKeeper_WithStore(t *testing.T) {
	ctx := context.Background()
	store, err := storage.New(t.TempDir() + "/parols.dbrs")
	require.NoError(t, err)
	k := service.NewKeeper(store, nil)

	for _, r := range []models.Record{
		models.NewRecordWithFields("mail", "alice", "p1", ""),
		models.NewRecordWithFields("bank", "alice", "p2", "note"),
		models.NewRecordWithFields("vpn", "bob", "p3", ""),
	} {
		_, err := k.Add(ctx, "correct", r)
		require.NoError(t, err)
	}
	removed, err := k.Remove(ctx, "correct", 0)
	require.NoError(t, err)
	assert.Equal(t, "mail", removed.Application)

	got, err := k.List(ctx, "correct")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bank", got[0].Application)

	_, err = k.List(ctx, "wrong")
	assert.ErrorIs(t, err, storage.ErrCannotOpen)

	require.NoError(t, k.ChangePassword(ctx, "correct", "fresh"))
	got, err = k.List(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
