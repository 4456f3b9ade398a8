package perfil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfil/internal/perfil"
	"perfil/internal/perfil/entity"
	perfilrepo "perfil/internal/perfil/repo"
)

// stubStore is an in-memory perfil.Store that mirrors the repo semantics
// and counts writes so no-op behavior can be asserted.
type stubStore struct {
	rows        map[string]*storedRow
	createCalls int
	updateCalls int
}

type storedRow struct {
	perfil entity.Perfil
	photo  []byte
}

func newStubStore() *stubStore {
	return &stubStore{rows: map[string]*storedRow{}}
}

func (s *stubStore) Create(_ context.Context, email string, in entity.NewPerfil, photo []byte) (*entity.Perfil, error) {
	s.createCalls++
	if _, ok := s.rows[email]; ok {
		return nil, perfilrepo.ErrEmailTaken
	}
	row := &storedRow{
		perfil: entity.Perfil{Email: email, Name: in.Name, Description: in.Description, Gender: in.Gender},
		photo:  photo,
	}
	s.rows[email] = row
	out := row.perfil
	return &out, nil
}

func (s *stubStore) Get(_ context.Context, email string) (*entity.Perfil, error) {
	row, ok := s.rows[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := row.perfil
	return &out, nil
}

func (s *stubStore) GetImage(_ context.Context, email string) ([]byte, error) {
	row, ok := s.rows[email]
	if !ok || len(row.photo) == 0 {
		return nil, sql.ErrNoRows
	}
	return row.photo, nil
}

func (s *stubStore) Update(_ context.Context, email string, patch entity.PerfilPatch, photo []byte) (*entity.Perfil, error) {
	s.updateCalls++
	row, ok := s.rows[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Name != nil {
		row.perfil.Name = *patch.Name
	}
	if patch.Description != nil {
		row.perfil.Description = patch.Description
	}
	if patch.Gender != nil {
		row.perfil.Gender = patch.Gender
	}
	if photo != nil {
		row.photo = photo
	}
	out := row.perfil
	return &out, nil
}

func (s *stubStore) Delete(_ context.Context, email string) (bool, error) {
	if _, ok := s.rows[email]; !ok {
		return false, nil
	}
	delete(s.rows, email)
	return true, nil
}

func strptr(s string) *string { return &s }

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("create then get echoes the submitted fields", func(t *testing.T) {
		store := newStubStore()
		svc := perfil.NewService(nil, store)

		created, err := svc.Create(ctx, "ana@example.com",
			entity.NewPerfil{Name: "Ana", Gender: strptr("F")}, pngFixture)
		require.NoError(t, err)
		assert.Equal(t, "Ana", created.Name)
		assert.Nil(t, created.Description)

		got, err := svc.Get(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("second create for the same email conflicts", func(t *testing.T) {
		store := newStubStore()
		svc := perfil.NewService(nil, store)

		_, err := svc.Create(ctx, "ana@example.com", entity.NewPerfil{Name: "Ana"}, pngFixture)
		require.NoError(t, err)

		_, err = svc.Create(ctx, "ana@example.com", entity.NewPerfil{Name: "Other"}, pngFixture)
		assert.ErrorIs(t, err, perfil.ErrConflict)

		got, err := svc.Get(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Ana", got.Name, "the loser must not overwrite")
	})
}

func TestServiceGet(t *testing.T) {
	ctx := context.Background()

	t.Run("absent profile is not found", func(t *testing.T) {
		svc := perfil.NewService(nil, newStubStore())
		_, err := svc.Get(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, perfil.ErrNotFound)
	})

	t.Run("image of a photo-less profile is not found", func(t *testing.T) {
		store := newStubStore()
		store.rows["ana@example.com"] = &storedRow{perfil: entity.Perfil{Email: "ana@example.com", Name: "Ana"}}
		svc := perfil.NewService(nil, store)

		_, err := svc.GetImage(ctx, "ana@example.com")
		assert.ErrorIs(t, err, perfil.ErrNotFound)
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*stubStore, *perfil.Service) {
		t.Helper()
		store := newStubStore()
		svc := perfil.NewService(nil, store)
		_, err := svc.Create(ctx, "ana@example.com",
			entity.NewPerfil{Name: "Ana", Gender: strptr("F")}, pngFixture)
		require.NoError(t, err)
		return store, svc
	}

	t.Run("description-only patch leaves the rest untouched", func(t *testing.T) {
		store, svc := seed(t)

		updated, err := svc.Update(ctx, "ana@example.com",
			entity.PerfilPatch{Description: strptr("hello")}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Ana", updated.Name)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "hello", *updated.Description)
		require.NotNil(t, updated.Gender)
		assert.Equal(t, "F", *updated.Gender)
		assert.Equal(t, pngFixture, store.rows["ana@example.com"].photo)
	})

	t.Run("empty patch with no photo performs no store write", func(t *testing.T) {
		store, svc := seed(t)

		before, err := svc.Get(ctx, "ana@example.com")
		require.NoError(t, err)

		got, err := svc.Update(ctx, "ana@example.com", entity.PerfilPatch{}, nil)
		require.NoError(t, err)
		assert.Equal(t, before, got)
		assert.Zero(t, store.updateCalls)
	})

	t.Run("photo-only update keeps metadata", func(t *testing.T) {
		store, svc := seed(t)
		jpeg := []byte{0xFF, 0xD8, 0xFF}

		updated, err := svc.Update(ctx, "ana@example.com", entity.PerfilPatch{}, jpeg)
		require.NoError(t, err)
		assert.Equal(t, "Ana", updated.Name)
		assert.Equal(t, jpeg, store.rows["ana@example.com"].photo)
	})

	t.Run("update of an absent profile is not found", func(t *testing.T) {
		svc := perfil.NewService(nil, newStubStore())
		_, err := svc.Update(ctx, "ghost@example.com", entity.PerfilPatch{Name: strptr("x")}, nil)
		assert.ErrorIs(t, err, perfil.ErrNotFound)
	})
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete then get is not found", func(t *testing.T) {
		store := newStubStore()
		svc := perfil.NewService(nil, store)
		_, err := svc.Create(ctx, "ana@example.com", entity.NewPerfil{Name: "Ana"}, pngFixture)
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, "ana@example.com"))

		_, err = svc.Get(ctx, "ana@example.com")
		assert.ErrorIs(t, err, perfil.ErrNotFound)
	})

	t.Run("deleting an absent profile is not found", func(t *testing.T) {
		svc := perfil.NewService(nil, newStubStore())
		assert.ErrorIs(t, svc.Delete(ctx, "ghost@example.com"), perfil.ErrNotFound)
	})
}
