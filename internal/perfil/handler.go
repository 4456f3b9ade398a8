package perfil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"perfil/internal/perfil/entity"
	"perfil/internal/token"
)

const (
	maxNameLen    = 100
	maxGenderLen  = 20
	maxFormMemory = 10 << 20
)

// Handler exposes the HTTP endpoints for profile operations. Every route
// derives its row key from the verified token subject, so there is no
// per-resource ownership check anywhere below this layer.
type Handler struct {
	svc    *Service
	images ImageConfig
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, images ImageConfig, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, images: images, logger: logger}
}

// Create handles POST /perfil: create the caller's profile, photo required.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	email, ok := token.Identity(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, token.ErrUnauthenticated.Error())
		return
	}
	if err := parseForm(r); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(name) > maxNameLen {
		h.writeError(w, http.StatusBadRequest, "name must be at most 100 characters")
		return
	}
	gender := formField(r, "gender")
	if gender != nil && len(*gender) > maxGenderLen {
		h.writeError(w, http.StatusBadRequest, "gender must be at most 20 characters")
		return
	}

	// Conflict answer before the image body is consumed.
	if _, err := h.svc.Get(r.Context(), email); err == nil {
		h.writeError(w, http.StatusConflict, "profile already exists for this email, use PUT to update")
		return
	} else if !errors.Is(err, ErrNotFound) {
		h.internal(w, "create", err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()
	photo, err := validateImage(file, header, h.images)
	if err != nil {
		h.writeImageError(w, err)
		return
	}

	in := entity.NewPerfil{Name: name, Description: formField(r, "description"), Gender: gender}
	created, err := h.svc.Create(r.Context(), email, in, photo)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			h.writeError(w, http.StatusConflict, "profile already exists for this email, use PUT to update")
			return
		}
		h.internal(w, "create", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /perfil: metadata only, never the photo.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	email, ok := token.Identity(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, token.ErrUnauthenticated.Error())
		return
	}
	p, err := h.svc.Get(r.Context(), email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "profile not found for the authenticated user")
			return
		}
		h.internal(w, "get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// GetImage handles GET /perfil/imagem: the raw photo bytes with a
// content type sniffed from the stored prefix.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	email, ok := token.Identity(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, token.ErrUnauthenticated.Error())
		return
	}
	photo, err := h.svc.GetImage(r.Context(), email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "profile image not found for the authenticated user")
			return
		}
		h.internal(w, "get image", err)
		return
	}
	w.Header().Set("Content-Type", sniffImageType(photo, h.images.AllowedTypes))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(photo)
}

// Update handles PUT /perfil: field-presence merge of whatever was
// actually supplied, photo included.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	email, ok := token.Identity(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, token.ErrUnauthenticated.Error())
		return
	}
	if err := parseForm(r); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	if _, err := h.svc.Get(r.Context(), email); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "profile not found for the authenticated user, create one first with POST")
			return
		}
		h.internal(w, "update", err)
		return
	}

	patch := entity.PerfilPatch{
		Name:        formField(r, "name"),
		Description: formField(r, "description"),
		Gender:      formField(r, "gender"),
	}
	if patch.Name != nil && len(*patch.Name) > maxNameLen {
		h.writeError(w, http.StatusBadRequest, "name must be at most 100 characters")
		return
	}
	if patch.Gender != nil && len(*patch.Gender) > maxGenderLen {
		h.writeError(w, http.StatusBadRequest, "gender must be at most 20 characters")
		return
	}

	var photo []byte
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		if photo, err = validateImage(file, header, h.images); err != nil {
			h.writeImageError(w, err)
			return
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// no new photo, keep the stored one
	default:
		h.writeError(w, http.StatusBadRequest, "invalid image upload")
		return
	}

	updated, err := h.svc.Update(r.Context(), email, patch, photo)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "profile not found for the authenticated user, create one first with POST")
			return
		}
		h.internal(w, "update", err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /perfil: hard delete, 204 on success.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	email, ok := token.Identity(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, token.ErrUnauthenticated.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), email); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "profile not found for the authenticated user")
			return
		}
		h.internal(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeImageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidMediaType):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrImageTooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		h.internal(w, "read image", err)
	}
}

func (h *Handler) internal(w http.ResponseWriter, op string, err error) {
	h.logger.Errorw("profile operation failed", "op", op, "err", err)
	h.writeError(w, http.StatusInternalServerError, "could not process the profile request")
}

func (h *Handler) writeError(w http.ResponseWriter, status int, reason string) {
	h.writeJSON(w, status, map[string]string{"error": reason})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseForm accepts both multipart (the usual case, image uploads) and
// urlencoded bodies.
func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return r.ParseForm()
		}
		return err
	}
	return nil
}

// formField returns the trimmed value of a form field, with empty and
// absent both counting as "not supplied".
func formField(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil
	}
	return &v
}
