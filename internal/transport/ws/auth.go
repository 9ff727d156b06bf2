package ws

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Authentication errors.
var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims are the JWT claims issued by the platform's auth service.
type Claims struct {
	jwt.RegisteredClaims
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Identity is the verified player behind a connection.
type Identity struct {
	ID       string
	Username string
	Guest    bool
}

// Authenticator verifies HS256 tokens. With an empty secret every client
// is admitted as a guest.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for the shared secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// GuestMode reports whether tokens are ignored.
func (a *Authenticator) GuestMode() bool {
	return len(a.secret) == 0
}

// Identify resolves the identity of a request. The token comes from the
// "token" query parameter or an Authorization: Bearer header.
func (a *Authenticator) Identify(r *http.Request) (Identity, error) {
	if a.GuestMode() {
		id := "guest-" + uuid.NewString()
		return Identity{ID: id, Username: id, Guest: true}, nil
	}

	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		tokenStr = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return Identity{}, ErrMissingToken
	}
	return a.Verify(tokenStr)
}

// Verify parses and validates a token.
func (a *Authenticator) Verify(tokenStr string) (Identity, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKey
		}
		return a.secret, nil
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, keyFunc)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return Identity{}, fmt.Errorf("%w: no player id", ErrInvalidToken)
	}
	return Identity{ID: claims.ID, Username: claims.Username}, nil
}

// Issue signs a token for a player. ttl <= 0 means no expiry.
func (a *Authenticator) Issue(id, username string, ttl time.Duration) (string, error) {
	if a.GuestMode() {
		return "", errors.New("ws: no jwt secret configured")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id,
			IssuedAt: jwt.NewNumericDate(now),
		},
		ID:       id,
		Username: username,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
