package auth

import (
	"crypto/sha256"
	"io"
	"time"

	"velure/config"
	"velure/internal/domain/entity"
	"velure/internal/domain/service"
	"velure/internal/errors"

	"go.uber.org/fx"
	"golang.org/x/crypto/hkdf"
)

const refreshKeySize = 32

// TokenIssuerParams holds dependencies for the token issuer, injected by Fx.
type TokenIssuerParams struct {
	fx.In

	Config *config.Config
	Codec  service.TokenCodec
}

// tokenIssuer binds the codec to the configured keys and lifetimes.
type tokenIssuer struct {
	codec      service.TokenCodec
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer derives the refresh key once and returns the issuer.
func NewTokenIssuer(params TokenIssuerParams) (service.TokenIssuer, error) {
	jwtCfg := params.Config.JWT
	if jwtCfg.Secret == "" || jwtCfg.RefreshSecret == "" {
		return nil, errors.New("jwt secrets must be provided")
	}

	refreshKey, err := DeriveRefreshKey(jwtCfg.Secret, jwtCfg.RefreshSecret, jwtCfg.RefreshKeyDerivation)
	if err != nil {
		return nil, err
	}

	return &tokenIssuer{
		codec:      params.Codec,
		accessKey:  []byte(jwtCfg.Secret),
		refreshKey: refreshKey,
		accessTTL:  jwtCfg.ExpiresIn,
		refreshTTL: jwtCfg.RefreshExpiresIn,
	}, nil
}

// DeriveRefreshKey builds the refresh-token signing key from the access secret
// and the refresh secret. "concat" reproduces keys of tokens issued before HKDF
// derivation was introduced.
func DeriveRefreshKey(secret, refreshSecret, mode string) ([]byte, error) {
	switch mode {
	case config.RefreshKeyDerivationConcat:
		return []byte(secret + refreshSecret), nil
	case config.RefreshKeyDerivationHKDF, "":
		key := make([]byte, refreshKeySize)
		reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(refreshSecret))
		if _, err := io.ReadFull(reader, key); err != nil {
			return nil, errors.Wrap(err, "failed to derive refresh key")
		}

		return key, nil
	default:
		return nil, errors.Errorf("unknown refresh key derivation: %s", mode)
	}
}

func (i *tokenIssuer) GenerateAccessToken(user *entity.User) (string, error) {
	return i.codec.Sign(service.NewClaims(user), service.SignOptions{
		Secret:    i.accessKey,
		ExpiresIn: i.accessTTL,
	})
}

func (i *tokenIssuer) GenerateRefreshToken(user *entity.User) (string, error) {
	return i.codec.Sign(service.NewClaims(user), service.SignOptions{
		Secret:    i.refreshKey,
		ExpiresIn: i.refreshTTL,
	})
}

func (i *tokenIssuer) VerifyAccessToken(token string) (*service.Claims, error) {
	return i.codec.Verify(token, i.accessKey)
}
