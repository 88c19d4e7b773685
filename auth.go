package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 12 * time.Hour

var errNoToken = errors.New("missing bearer token")

// tokenIssuer signs player tokens. A token proves the name passed the appropriateness check.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret []byte) *tokenIssuer {
	return &tokenIssuer{secret: secret, ttl: tokenTTL, now: time.Now}
}

// Issue returns a signed token naming the player.
func (ti *tokenIssuer) Issue(name string) (string, error) {
	now := ti.now()
	claims := jwt.RegisteredClaims{
		Subject:   name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

// Parse verifies a token and returns the player name.
func (ti *tokenIssuer) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ti.now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token without subject")
	}
	return claims.Subject, nil
}

type contextKey string

var playerCtxKey = contextKey("player")

// requirePlayer rejects requests without a valid bearer token and stores the player name in
// the request context.
func (ti *tokenIssuer) requirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearer(r)
		if err != nil {
			jsonError(w, "Token ausente", http.StatusUnauthorized)
			return
		}
		name, err := ti.Parse(token)
		if err != nil {
			jsonError(w, "Token inválido", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), playerCtxKey, name)))
	})
}

func bearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok && token != "" {
		return token, nil
	}
	return "", errNoToken
}

func playerFrom(ctx context.Context) string {
	name, _ := ctx.Value(playerCtxKey).(string)
	return name
}
