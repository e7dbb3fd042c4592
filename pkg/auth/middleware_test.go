package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAdminMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		name  string
		hash  string
		token string
		want  int
	}{
		{"not configured", "", "s3cret", http.StatusUnauthorized},
		{"missing token", string(hash), "", http.StatusUnauthorized},
		{"wrong token", string(hash), "guess", http.StatusUnauthorized},
		{"valid", string(hash), "s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/warm", nil)
			if tc.token != "" {
				req.Header.Set(AdminHeader, tc.token)
			}
			rec := httptest.NewRecorder()
			AdminMiddleware(tc.hash)(ok).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHashToken(t *testing.T) {
	hash, err := HashToken("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")) != nil {
		t.Fatal("hash does not match its token")
	}
}
