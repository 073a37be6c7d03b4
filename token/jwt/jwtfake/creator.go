package jwtfake

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingKey = []byte("jwtfake-signing-key")

// AccessToken mints an HS256 access token for subject that expires at exp.
// A zero exp produces a token without an exp claim.
func AccessToken(subject string, exp time.Time) string {
	claims := jwtlib.MapClaims{
		"iss":    "https://auth.example.com",
		"sub":    subject,
		"aud":    "api",
		"tenant": "tenant-1",
		"roles":  []string{"tenant_user"},
		"iat":    time.Now().Add(-time.Minute).Unix(),
		"jti":    uuid.New().String(),
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	return Sign(claims)
}

// Sign signs arbitrary claims. It panics on failure since it is only used to build fixtures.
func Sign(claims jwtlib.MapClaims) string {
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return signed
}
