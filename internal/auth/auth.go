package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is how long an anonymous browser session stays valid.
// Refreshing keeps the client id, and with it the watchlist.
const SessionTTL = 30 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid session token")

type Session struct {
	ClientID  string
	ExpiresAt time.Time
}

type sessionClaims struct {
	ClientID string `json:"cid"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	now    func() time.Time
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret), now: time.Now}
}

// IssueSession starts a session for a new anonymous client.
func (s *Service) IssueSession() (string, Session, error) {
	return s.issue(uuid.NewString())
}

func (s *Service) issue(clientID string) (string, Session, error) {
	now := s.now()
	exp := now.Add(SessionTTL)
	claims := sessionClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	return token, Session{ClientID: clientID, ExpiresAt: exp.Truncate(time.Second)}, nil
}

func (s *Service) ParseSession(tokenStr string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return Session{}, ErrInvalidToken
	}
	if _, err := uuid.Parse(c.ClientID); err != nil {
		return Session{}, fmt.Errorf("%w: bad client id", ErrInvalidToken)
	}
	sess := Session{ClientID: c.ClientID}
	if c.ExpiresAt != nil {
		sess.ExpiresAt = c.ExpiresAt.Time
	}
	return sess, nil
}

// Refresh re-issues a still valid session with a new expiry.
func (s *Service) Refresh(tokenStr string) (string, Session, error) {
	sess, err := s.ParseSession(tokenStr)
	if err != nil {
		return "", Session{}, err
	}
	return s.issue(sess.ClientID)
}

type ctxKey string

const sessionKey ctxKey = "session"

func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey).(Session)
	return sess, ok
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			http.Error(w, "missing session", http.StatusUnauthorized)
			return
		}
		sess, err := s.ParseSession(token)
		if err != nil {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
