package config

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwtEnv struct {
	PrivateKey     string        `env:"JWT_PRIVATE_KEY"`
	PrivateKeyFile string        `env:"JWT_PRIVATE_KEY_FILE,file"`
	PublicKey      string        `env:"JWT_PUBLIC_KEY"`
	PublicKeyFile  string        `env:"JWT_PUBLIC_KEY_FILE,file"`
	TokenLifetime  time.Duration `env:"JWT_TOKEN_LIFETIME" envDefault:"720h"`
}

func pick(value, fromFile string) string {
	if value != "" {
		return value
	}
	return fromFile
}

type JWT struct {
	publicKey     *rsa.PublicKey
	privateKey    *rsa.PrivateKey
	signingMethod jwt.SigningMethod
	tokenLifetime time.Duration
}

func NewJWT() (*JWT, error) {
	var e jwtEnv
	if err := ParseEnv(&e); err != nil {
		return nil, err
	}

	privatePEM := pick(e.PrivateKey, e.PrivateKeyFile)
	if privatePEM == "" {
		return nil, errors.New("no JWT_PRIVATE_KEY or JWT_PRIVATE_KEY_FILE env variable set")
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privatePEM))
	if err != nil {
		return nil, fmt.Errorf("unable to parse JWT private key: %w", err)
	}

	publicKey := &privateKey.PublicKey
	if publicPEM := pick(e.PublicKey, e.PublicKeyFile); publicPEM != "" {
		publicKey, err = jwt.ParseRSAPublicKeyFromPEM([]byte(publicPEM))
		if err != nil {
			return nil, fmt.Errorf("unable to parse JWT public key: %w", err)
		}
	}

	return &JWT{
		privateKey:    privateKey,
		publicKey:     publicKey,
		signingMethod: jwt.SigningMethodRS256,
		tokenLifetime: e.TokenLifetime,
	}, nil
}

// NewJWTFromKey signs and verifies with key. Used by tests and tools that
// generate a throwaway key.
func NewJWTFromKey(key *rsa.PrivateKey, lifetime time.Duration) *JWT {
	return &JWT{
		privateKey:    key,
		publicKey:     &key.PublicKey,
		signingMethod: jwt.SigningMethodRS256,
		tokenLifetime: lifetime,
	}
}

func (j *JWT) TokenLifetime() time.Duration {
	return j.tokenLifetime
}

func (j *JWT) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(j.signingMethod, claims).SignedString(j.privateKey)
}

func (j *JWT) ParseWithClaims(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	return jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return j.publicKey, nil
		},
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
	)
}
