package api

import (
	"net/http"
	"strings"

	"github.com/pitchlab/pitchlab/internal/core/auth"
)

// =============================================================================
// Bearer Auth Middleware
// =============================================================================

// requireAuth validates the bearer token, loads the account it names, and
// places it on the request context. Tokens for disabled accounts are
// rejected the way the login endpoint rejects them.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.writeError(w, http.StatusUnauthorized, "missing bearer token", "unauthorized")
			return
		}

		email, err := h.issuer.Verify(token)
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "could not validate credentials", "unauthorized")
			return
		}

		user, err := h.store.GetUserByEmail(r.Context(), email)
		if err != nil {
			if isNotFound(err) {
				h.writeError(w, http.StatusUnauthorized, "could not validate credentials", "unauthorized")
				return
			}
			h.logger.Error("failed to load user for token", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to validate credentials", "internal_error")
			return
		}

		if err := user.CheckActive(); err != nil {
			h.writeError(w, http.StatusBadRequest, "inactive user", "user_disabled")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}
