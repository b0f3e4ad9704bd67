package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/familyvault/familyvault/internal/config"
	"github.com/familyvault/familyvault/internal/models"
	"github.com/familyvault/familyvault/pkg/middleware"
)

// GenerateAccessToken creates a signed JWT access token for the user
func GenerateAccessToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.Sub,
		"name":  u.Name,
		"email": u.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// hmacToken adapts parsed JWT claims to the middleware.Token interface.
type hmacToken struct {
	claims jwt.MapClaims
}

func (t *hmacToken) Claims(v interface{}) error {
	m, ok := v.(*map[string]interface{})
	if !ok {
		return errors.New("unsupported claims target")
	}
	*m = map[string]interface{}(t.claims)
	return nil
}

// HMACVerifier verifies HS256 tokens issued by GenerateAccessToken. Used when
// no OIDC issuer is configured.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return &hmacToken{claims: claims}, nil
}

var _ middleware.Verifier = (*HMACVerifier)(nil)
