package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/campusfest/techfest-system/models"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const (
	userIDContextKey   contextKey = "user_id"
	userRoleContextKey contextKey = "user_role"
	semesterContextKey contextKey = "user_semester"
)

// Claims is the JWT payload issued at login. Semester rides along so the
// event listing can apply semester visibility without a user lookup.
type Claims struct {
	UserID   int             `json:"user_id"`
	Role     models.UserRole `json:"role"`
	Semester *int            `json:"semester,omitempty"`
	jwt.RegisteredClaims
}

// NewToken signs a token for the user, valid for ttl.
func NewToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Role:     user.Role,
		Semester: user.Semester,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticator parses and verifies bearer tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) parse(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, fmt.Errorf("malformed authorization header")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || !claims.Role.Valid() {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func withClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, claims.UserID)
	ctx = context.WithValue(ctx, userRoleContextKey, claims.Role)
	if claims.Semester != nil {
		ctx = context.WithValue(ctx, semesterContextKey, *claims.Semester)
	}
	return ctx
}

// Authenticate rejects requests without a valid bearer token.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.parse(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintf(w, `{"error": %q}`, "invalid or missing authentication token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuthenticate attaches claims when a valid token is present and
// passes the request through anonymously otherwise. Used on public event
// routes where the viewer's role and semester shape visibility.
func (a *Authenticator) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			if claims, err := a.parse(r); err == nil {
				r = r.WithContext(withClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles guards a route group behind an allowed-role set. Must run
// after Authenticate.
func RequireRoles(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRoleFromContext(r.Context())
			if ok {
				for _, allowed := range roles {
					if role == allowed {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintf(w, `{"error": %q}`, "insufficient permissions")
		})
	}
}

// GetUserIDFromContext returns the authenticated user's ID, if any.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDContextKey).(int)
	return id, ok
}

// GetUserRoleFromContext returns the authenticated user's role, if any.
func GetUserRoleFromContext(ctx context.Context) (models.UserRole, bool) {
	role, ok := ctx.Value(userRoleContextKey).(models.UserRole)
	return role, ok
}

// GetUserSemesterFromContext returns the authenticated student's semester,
// if the account has one recorded.
func GetUserSemesterFromContext(ctx context.Context) (int, bool) {
	sem, ok := ctx.Value(semesterContextKey).(int)
	return sem, ok
}
