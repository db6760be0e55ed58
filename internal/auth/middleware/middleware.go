package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/auth"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type AuthService struct {
	hmac []byte
	ttl  time.Duration
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{hmac: []byte(secret), ttl: 8 * time.Hour}
}

type Claims struct {
	Sub       string `json:"sub"`
	Role      string `json:"role"` // rbac role: student|teacher|admin
	Name      string `json:"name,omitempty"`
	TeacherID string `json:"teacher_id,omitempty"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(u auth.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:       u.Username,
		Role:      u.PermissionRole(),
		Name:      u.FullName,
		TeacherID: u.TeacherID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "mindengage-quiz",
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (auth.User, error)
}

// POST /auth/login  { "username": "...", "password": "..." }
// onLogin runs after a successful check, before the token is returned.
func LoginHandler(a *AuthService, dir Authenticator, onLogin func(context.Context, auth.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, err := dir.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(u)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		if onLogin != nil {
			onLogin(r.Context(), u)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": tok, "user": u})
	}
}

// JWTMiddleware validates the bearer token and stores its claims and rbac
// role in the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil || c.Sub == "" {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithClaims(r.Context(), c)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
