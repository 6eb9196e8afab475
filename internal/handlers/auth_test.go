package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/models"
	"github.com/sunushop/sunushop/internal/services"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func newTestHandlers() *Handlers {
	return &Handlers{
		authService: services.NewAuthService(nil, testJWTSecret, logging.Nop()),
		logger:      logging.Nop(),
	}
}

func signTestToken(t *testing.T, secret string, userID uuid.UUID, role models.UserRole, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestRequireAuth_RejectsMissingToken(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()

	h.RequireAuth(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAuth_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	token := signTestToken(t, testJWTSecret, uuid.New(), models.RoleBuyer, -time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.RequireAuth(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAuth_InjectsIdentity(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	userID := uuid.New()

	var got *services.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = identityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	token := signTestToken(t, testJWTSecret, userID, models.RoleBuyer, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.RequireAuth(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if got == nil {
		t.Fatal("expected identity in request context")
	}
	if got.UserID != userID {
		t.Errorf("expected user ID %s, got %s", userID, got.UserID)
	}
	if got.Role != models.RoleBuyer {
		t.Errorf("expected role %q, got %q", models.RoleBuyer, got.Role)
	}
}

func TestRequireAdmin_RejectsBuyer(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	token := signTestToken(t, testJWTSecret, uuid.New(), models.RoleBuyer, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/admin/coupons", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.RequireAuth(h.RequireAdmin(next)).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	token := signTestToken(t, testJWTSecret, uuid.New(), models.RoleAdmin, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/admin/coupons", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.RequireAuth(h.RequireAdmin(next)).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestOptionalAuth_AllowsAnonymous(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	var got *services.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = identityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/coupons/validate", nil)
	rec := httptest.NewRecorder()

	h.OptionalAuth(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if got != nil {
		t.Errorf("expected no identity for anonymous request, got %+v", got)
	}
}

func TestOptionalAuth_ResolvesToken(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	userID := uuid.New()

	var got *services.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = identityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	token := signTestToken(t, testJWTSecret, userID, models.RoleBuyer, time.Hour)
	req := httptest.NewRequest(http.MethodPost, "/coupons/validate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.OptionalAuth(next).ServeHTTP(rec, req)

	if got == nil || got.UserID != userID {
		t.Fatalf("expected identity for user %s, got %+v", userID, got)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty", header: "", want: ""},
		{name: "bearer", header: "Bearer abc123", want: "abc123"},
		{name: "case insensitive scheme", header: "bearer abc123", want: "abc123"},
		{name: "wrong scheme", header: "Basic abc123", want: ""},
		{name: "missing token", header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
