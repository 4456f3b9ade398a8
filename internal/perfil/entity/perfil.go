package entity

// Perfil is the metadata projection of a row in the `perfis` table. The
// photo column is deliberately absent: image bytes only ever leave through
// the dedicated image endpoint.
type Perfil struct {
	Email       string  `db:"email" json:"email"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
	Gender      *string `db:"gender" json:"gender"`
}

// NewPerfil carries the fields accepted at creation. Name is required;
// the rest are nullable.
type NewPerfil struct {
	Name        string
	Description *string
	Gender      *string
}

// PerfilPatch is an explicit optional-field update: a nil pointer means
// "not supplied, keep the stored value", a non-nil pointer overwrites.
type PerfilPatch struct {
	Name        *string
	Description *string
	Gender      *string
}

// IsZero reports whether the patch supplies no field at all.
func (p PerfilPatch) IsZero() bool {
	return p.Name == nil && p.Description == nil && p.Gender == nil
}
