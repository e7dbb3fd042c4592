package auth

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminHeader carries the operator token.
const AdminHeader = "X-Admin-Token"

// AdminMiddleware admits requests whose X-Admin-Token matches the bcrypt
// hash. With no hash configured every request is refused.
func AdminMiddleware(hash string) func(http.Handler) http.Handler {
	hashed := []byte(strings.TrimSpace(hash))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(hashed) == 0 {
				http.Error(w, "admin token not configured", http.StatusUnauthorized)
				return
			}
			token := r.Header.Get(AdminHeader)
			if token == "" || bcrypt.CompareHashAndPassword(hashed, []byte(token)) != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HashToken produces a value for ADMIN_TOKEN_HASH.
func HashToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
