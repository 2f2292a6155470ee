package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusfest/techfest-system/models"
)

const testSecret = "test-secret"

func issueToken(t *testing.T, user *models.User, ttl time.Duration) string {
	t.Helper()
	token, err := NewToken(testSecret, user, ttl)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthenticateRoundTrip(t *testing.T) {
	five := 5
	user := &models.User{ID: 42, Role: models.RoleStudent, Semester: &five}
	auth := NewAuthenticator(testSecret)

	var gotID int
	var gotRole models.UserRole
	var gotSem int
	handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserIDFromContext(r.Context())
		gotRole, _ = GetUserRoleFromContext(r.Context())
		gotSem, _ = GetUserSemesterFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, user, time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != 42 || gotRole != models.RoleStudent || gotSem != 5 {
		t.Fatalf("claims not propagated: id=%d role=%s sem=%d", gotID, gotRole, gotSem)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	auth := NewAuthenticator(testSecret)
	handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + func() string {
			token, _ := NewToken("other-secret", &models.User{ID: 1, Role: models.RoleStudent}, time.Hour)
			return token
		}()},
		{"expired", "Bearer " + func() string {
			token, _ := NewToken(testSecret, &models.User{ID: 1, Role: models.RoleStudent}, -time.Hour)
			return token
		}()},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", tc.name, rec.Code)
		}
	}
}

func TestOptionalAuthenticate(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	var gotID int
	var hadID bool
	handler := auth.OptionalAuthenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, hadID = GetUserIDFromContext(r.Context())
	}))

	// Anonymous passes through.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || hadID {
		t.Fatalf("anonymous: code=%d hadID=%v", rec.Code, hadID)
	}

	// A valid token attaches claims.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, &models.User{ID: 7, Role: models.RoleFaculty}, time.Hour))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !hadID || gotID != 7 {
		t.Fatalf("expected claims for valid token, hadID=%v id=%d", hadID, gotID)
	}

	// An invalid token degrades to anonymous instead of failing.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer junk")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || hadID {
		t.Fatalf("invalid token: code=%d hadID=%v", rec.Code, hadID)
	}
}

func TestRequireRoles(t *testing.T) {
	auth := NewAuthenticator(testSecret)
	handler := auth.Authenticate(RequireRoles(models.RoleFaculty, models.RoleAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})))

	cases := []struct {
		role models.UserRole
		want int
	}{
		{models.RoleFaculty, http.StatusNoContent},
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleStudent, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, &models.User{ID: 1, Role: tc.role}, time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("role %s: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
	}
}
