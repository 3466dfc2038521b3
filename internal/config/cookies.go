package config

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
)

type Cookies struct {
	Domain   string        `env:"COOKIES_DOMAIN"`
	Secure   bool          `env:"COOKIES_SECURE" envDefault:"true"`
	SameSite http.SameSite `env:"COOKIES_SAMESITE" envDefault:"strict"`
	jwt      *JWT
}

type PlayerClaims struct {
	PlayerId int64  `json:"player_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func NewPlayerClaims(playerId int64, username string) *PlayerClaims {
	return &PlayerClaims{
		PlayerId: playerId,
		Username: username,
	}
}

func parseSameSite(v string) (any, error) {
	switch strings.ToUpper(v) {
	case "DEFAULT":
		return http.SameSiteDefaultMode, nil
	case "LAX":
		return http.SameSiteLaxMode, nil
	case "STRICT":
		return http.SameSiteStrictMode, nil
	case "NONE":
		return http.SameSiteNoneMode, nil
	}
	return nil, fmt.Errorf("unknown samesite mode %q", v)
}

func NewCookies(j *JWT) (*Cookies, error) {
	cookies := &Cookies{jwt: j}
	err := ParseEnvWithOptions(cookies, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(http.SameSite(0)): parseSameSite,
		},
	})
	if err != nil {
		return nil, err
	}
	return cookies, nil
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth",
		Path:     "/",
		Value:    "delete",
		MaxAge:   -1,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "sign",
		Path:     "/",
		Value:    "delete",
		MaxAge:   -1,
		HttpOnly: true,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// Issue signs claims and splits the token over two cookies: the readable
// "auth" cookie carries header and payload, the HttpOnly "sign" cookie the
// signature.
func (c *Cookies) Issue(w http.ResponseWriter, claims *PlayerClaims) error {
	expires := time.Now().Add(c.jwt.TokenLifetime())
	claims.ExpiresAt = jwt.NewNumericDate(expires)
	token, err := c.jwt.Sign(claims)
	if err != nil {
		return fmt.Errorf("unable to sign jwt token: %w", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("malformed JWT token generated")
	}
	header, payload, signature := parts[0], parts[1], parts[2]
	http.SetCookie(w, &http.Cookie{
		Name:     "auth",
		Path:     "/",
		Value:    header + "." + payload,
		Expires:  expires,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "sign",
		Path:     "/",
		Value:    signature,
		Expires:  expires,
		HttpOnly: true,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	return nil
}

func (c *Cookies) ParsePlayerClaims(r *http.Request) (*PlayerClaims, error) {
	authCookie, err := r.Cookie("auth")
	if err != nil {
		return nil, err
	}
	signCookie, err := r.Cookie("sign")
	if err != nil {
		return nil, err
	}
	token, err := c.jwt.ParseWithClaims(
		authCookie.Value+"."+signCookie.Value, &PlayerClaims{},
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*PlayerClaims)
	if !ok {
		return nil, fmt.Errorf("malformed claims")
	}
	return claims, nil
}
