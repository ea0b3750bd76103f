package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/mitchellh/mapstructure"
)

type Engine[T any] interface {
	// Generate creates a token string containing the obj and expiration.
	Generate(sub string, obj T) (string, error)

	// Verify returns an error if the token is invalid or expired. Otherwise it
	// returns the object carried by the token.
	Verify(token string) (T, error)
}

type standardClaims struct {
	jwt.RegisteredClaims
	Object any `json:"obj"`
}

type jwtEngine[T any] struct {
	secret     string
	expiration time.Duration
}

func NewEngine[T any](secret string, expiration time.Duration) Engine[T] {
	return &jwtEngine[T]{secret: secret, expiration: expiration}
}

func (e *jwtEngine[T]) Generate(sub string, obj T) (string, error) {
	now := time.Now()
	claims := standardClaims{
		Object: obj,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(e.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   sub,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(e.secret))
}

func (e *jwtEngine[T]) Verify(token string) (T, error) {
	var result T
	var claims standardClaims
	_, err := jwt.ParseWithClaims(
		token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(e.secret), nil
		},
	)
	if err != nil {
		return result, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &result,
	})
	if err != nil {
		return result, err
	}

	if err := decoder.Decode(claims.Object); err != nil {
		return result, err
	}

	return result, nil
}
