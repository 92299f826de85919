package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userKey contextKey = "user"

// User is the authenticated caller
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Claims carried by issued tokens
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

// NewJWTConfig creates a new JWT config
func NewJWTConfig(secretKey string, ttl time.Duration) *JWTConfig {
	if secretKey == "" {
		secretKey = "default-secret-key-change-in-production" // Default for development
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTConfig{SecretKey: secretKey, TTL: ttl}
}

// Issue signs a token for u
func (c *JWTConfig) Issue(u User) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.SecretKey))
}

// Parse validates tokenString and returns the caller it names
func (c *JWTConfig) Parse(tokenString string) (User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(c.SecretKey), nil
	})
	if err != nil {
		return User{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return User{}, jwt.ErrTokenInvalidClaims
	}
	return User{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// Middleware resolves the bearer token into a User. Requests without an
// Authorization header pass through anonymously.
func (c *JWTConfig) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header")
			return
		}

		u, err := c.Parse(parts[1])
		if err != nil {
			deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// WithUser stores u in ctx
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// FromContext returns the authenticated caller, if any
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	u, _ := FromContext(ctx)
	return u.ID
}

func deny(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "code": code, "message": message})
}

// RequireUser rejects anonymous requests with 401
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePerm rejects anonymous requests with 401 and callers whose role
// lacks perm with 403.
func RequirePerm(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := FromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
				return
			}
			if !HasPerm(u.Role, perm) {
				deny(w, http.StatusForbidden, "FORBIDDEN", "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
