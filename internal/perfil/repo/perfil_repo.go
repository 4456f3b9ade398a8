package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"perfil/internal/perfil/entity"
)

// ErrEmailTaken is returned when an insert loses the uniqueness race on
// the email primary key.
var ErrEmailTaken = errors.New("profile email already taken")

// PerfilRepo provides data access for the perfis table using sqlx.
type PerfilRepo struct {
	db *sqlx.DB
}

func NewPerfilRepo(db *sqlx.DB) *PerfilRepo { return &PerfilRepo{db: db} }

// EnsureTable creates the perfis table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *PerfilRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS perfis (
  email VARCHAR(255) PRIMARY KEY,
  name VARCHAR(100),
  description TEXT,
  gender VARCHAR(20),
  photo BYTEA
);`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new profile row. The email uniqueness constraint, not a
// check-then-insert, decides concurrent create races: the loser gets
// ErrEmailTaken.
func (r *PerfilRepo) Create(ctx context.Context, email string, in entity.NewPerfil, photo []byte) (*entity.Perfil, error) {
	const q = `INSERT INTO perfis (email, name, description, gender, photo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING email, name, description, gender`
	var row entity.Perfil
	if err := r.db.GetContext(ctx, &row, q, email, in.Name, in.Description, in.Gender, photo); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &row, nil
}

// Get fetches the metadata columns only (never the photo) or sql.ErrNoRows.
func (r *PerfilRepo) Get(ctx context.Context, email string) (*entity.Perfil, error) {
	const q = `SELECT email, name, description, gender FROM perfis WHERE email = $1`
	var row entity.Perfil
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetImage fetches only the photo column. A missing row and a null or
// empty photo both surface as sql.ErrNoRows.
func (r *PerfilRepo) GetImage(ctx context.Context, email string) ([]byte, error) {
	const q = `SELECT photo FROM perfis WHERE email = $1`
	var photo []byte
	if err := r.db.GetContext(ctx, &photo, q, email); err != nil {
		return nil, err
	}
	if len(photo) == 0 {
		return nil, sql.ErrNoRows
	}
	return photo, nil
}

// Update applies a field-presence merge in a single fixed statement:
// each column is overwritten only when its presence flag is true, so an
// omitted field can never null out stored data. The photo column is
// written independently of the metadata fields.
func (r *PerfilRepo) Update(ctx context.Context, email string, patch entity.PerfilPatch, photo []byte) (*entity.Perfil, error) {
	const q = `UPDATE perfis SET
		name        = CASE WHEN $2 THEN $3::varchar ELSE name END,
		description = CASE WHEN $4 THEN $5::text ELSE description END,
		gender      = CASE WHEN $6 THEN $7::varchar ELSE gender END,
		photo       = CASE WHEN $8 THEN $9::bytea ELSE photo END
		WHERE email = $1
		RETURNING email, name, description, gender`
	var row entity.Perfil
	err := r.db.GetContext(ctx, &row, q,
		email,
		patch.Name != nil, patch.Name,
		patch.Description != nil, patch.Description,
		patch.Gender != nil, patch.Gender,
		photo != nil, photo,
	)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes the row and reports whether one existed.
func (r *PerfilRepo) Delete(ctx context.Context, email string) (bool, error) {
	const q = `DELETE FROM perfis WHERE email = $1 RETURNING email`
	var deleted string
	if err := r.db.GetContext(ctx, &deleted, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
