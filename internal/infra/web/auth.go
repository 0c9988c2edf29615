// File: internal/infra/web/auth.go
package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type adminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type ctxKey string

const adminEmailKey ctxKey = "admin_email"

// IssueAdminToken mints a short-lived HS256 token for an operator email.
func IssueAdminToken(secret, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := adminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseAdminToken(secret, tokenString string) (*adminClaims, error) {
	claims := &adminClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// adminAuth gates the admin API: a valid token whose email is on the
// operator allowlist.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.jwtSecret == "" {
			s.log.Error().Msg("admin API requested but jwt secret is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := parseAdminToken(s.jwtSecret, parts[1])
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !s.isAdmin(claims.Email) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), adminEmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) isAdmin(email string) bool {
	for _, e := range s.adminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// constantTimeEq avoids leaking the bootstrap secret through timing.
func constantTimeEq(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
