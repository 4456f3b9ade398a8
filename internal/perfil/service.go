package perfil

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"perfil/internal/perfil/entity"
	perfilrepo "perfil/internal/perfil/repo"
)

var (
	ErrNotFound = errors.New("profile not found")
	ErrConflict = errors.New("profile already exists")
)

// Store is the persistence surface the service depends on. The sqlx repo
// is the production implementation; tests substitute a stub.
type Store interface {
	Create(ctx context.Context, email string, in entity.NewPerfil, photo []byte) (*entity.Perfil, error)
	Get(ctx context.Context, email string) (*entity.Perfil, error)
	GetImage(ctx context.Context, email string) ([]byte, error)
	Update(ctx context.Context, email string, patch entity.PerfilPatch, photo []byte) (*entity.Perfil, error)
	Delete(ctx context.Context, email string) (bool, error)
}

// Service orchestrates profile lifecycle rules on top of a Store.
type Service struct {
	store Store
}

func NewService(db *sqlx.DB, store Store) *Service {
	if store == nil {
		store = perfilrepo.NewPerfilRepo(db)
	}
	return &Service{store: store}
}

// Create inserts the profile for email, rejecting with ErrConflict when a
// row already exists. The uniqueness constraint, not a check-then-insert,
// decides concurrent create races.
func (s *Service) Create(ctx context.Context, email string, in entity.NewPerfil, photo []byte) (*entity.Perfil, error) {
	p, err := s.store.Create(ctx, email, in, photo)
	if err != nil {
		if errors.Is(err, perfilrepo.ErrEmailTaken) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return p, nil
}

// Get returns the metadata fields for email.
func (s *Service) Get(ctx context.Context, email string) (*entity.Perfil, error) {
	p, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetImage returns the raw photo bytes for email.
func (s *Service) GetImage(ctx context.Context, email string) ([]byte, error) {
	photo, err := s.store.GetImage(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return photo, nil
}

// Update merges only the supplied fields into the stored row. An empty
// patch with no photo is a true no-op: the current row comes back without
// a store write.
func (s *Service) Update(ctx context.Context, email string, patch entity.PerfilPatch, photo []byte) (*entity.Perfil, error) {
	current, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if patch.IsZero() && photo == nil {
		return current, nil
	}
	p, err := s.store.Update(ctx, email, patch, photo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes the row for email. Hard delete, no tombstone.
func (s *Service) Delete(ctx context.Context, email string) error {
	existed, err := s.store.Delete(ctx, email)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotFound
	}
	return nil
}
