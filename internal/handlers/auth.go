package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/sunushop/sunushop/internal/models"
	"github.com/sunushop/sunushop/internal/services"
)

type identityContextKey struct{}

// identityFromContext returns the authenticated identity, if any.
func identityFromContext(ctx context.Context) *services.Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*services.Identity)
	return identity
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, loginResponse{Token: result.Token, User: result.User})
}

// RequireAuth authenticates the bearer token and stores the identity in
// the request context.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		identity, err := h.authService.VerifyToken(token)
		if err != nil {
			h.writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth resolves a bearer token when one is sent but lets
// anonymous requests through without an identity.
func (h *Handlers) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if identity, err := h.authService.VerifyToken(token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityContextKey{}, identity))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin runs after RequireAuth and rejects non-admin identities.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromContext(r.Context())
		if identity == nil {
			h.writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		if identity.Role != models.RoleAdmin {
			h.writeError(w, r, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
