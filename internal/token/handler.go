package token

import (
	"encoding/json"
	"net/http"
	"net/mail"

	"go.uber.org/zap"
)

// Handler exposes the test-token convenience endpoint. There is no real
// login flow in this service, so this is the only way to mint a token.
// Do not expose it in production.
type Handler struct {
	issuer *Issuer
	logger *zap.SugaredLogger
}

func NewHandler(issuer *Issuer, logger *zap.SugaredLogger) *Handler {
	return &Handler{issuer: issuer, logger: logger}
}

// GenerateTestToken issues a token whose subject is the submitted email.
func (h *Handler) GenerateTestToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form payload"})
		return
	}
	email := r.Form.Get("email")
	if _, err := mail.ParseAddress(email); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a valid email is required"})
		return
	}
	tok, err := h.issuer.Issue(email, 0)
	if err != nil {
		h.logger.Warnw("token issue failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not issue token"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"access_token":   tok,
		"token_type":     "bearer",
		"email_in_token": email,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
