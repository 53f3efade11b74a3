// Package jwt emite y valida los tokens de sesión.
//
// Access y refresh son HS256 con secretos distintos: un refresh nunca valida
// como access ni al revés (además del claim typ).
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrWrongKind    = errors.New("token kind mismatch")
)

// Config del issuer.
type Config struct {
	Issuer        string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Issuer firma y parsea tokens.
type Issuer struct {
	Iss        string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	accessKey  []byte
	refreshKey []byte
	now        func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("jwt: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("jwt: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 720 * time.Hour
	}
	return &Issuer{
		Iss:        cfg.Issuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		now:        time.Now,
	}, nil
}

// WithClock reemplaza el reloj (tests).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) key(k Kind) ([]byte, time.Duration) {
	if k == KindRefresh {
		return i.refreshKey, i.RefreshTTL
	}
	return i.accessKey, i.AccessTTL
}

// Sign emite un token del tipo indicado. Devuelve el token y su expiración.
func (i *Issuer) Sign(kind Kind, sub Subject) (string, time.Time, error) {
	key, ttl := i.key(kind)
	now := i.now().UTC()
	exp := now.Add(ttl)

	claims := Claims{
		ID:       sub.UserID,
		Role:     sub.Role,
		MetaData: sub.MetaData,
		ParamID:  sub.UserID,
		Type:     kind,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   sub.UserID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

// SignAccess atajo para access tokens.
func (i *Issuer) SignAccess(sub Subject) (string, time.Time, error) {
	return i.Sign(KindAccess, sub)
}

// SignRefresh atajo para refresh tokens.
func (i *Issuer) SignRefresh(sub Subject) (string, time.Time, error) {
	return i.Sign(KindRefresh, sub)
}

// Parse valida firma, método, iss, exp y typ.
func (i *Issuer) Parse(kind Kind, raw string) (*Claims, error) {
	key, _ := i.key(kind)
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(i.now),
	}
	if i.Iss != "" {
		opts = append(opts, jwtv5.WithIssuer(i.Iss))
	}

	var claims Claims
	_, err := jwtv5.ParseWithClaims(raw, &claims, func(*jwtv5.Token) (any, error) { return key, nil }, opts...)
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != kind {
		return nil, ErrWrongKind
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidToken)
	}
	return &claims, nil
}

// AsSubject reconstruye el sujeto desde claims ya validadas.
func (c *Claims) AsSubject() Subject {
	return Subject{UserID: c.ID, Role: c.Role, MetaData: c.MetaData}
}
