package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/logger"
)

const minSecretLen = 16

var (
	ErrWeakSecret   = fmt.Errorf("jwt secret must be at least %d bytes", minSecretLen)
	ErrInvalidToken = errors.New("invalid identity token")
)

// Claims identify an enrolled user. UserKey is opaque and only used to
// bucket check-ins per user-week.
type Claims struct {
	UserKey string `json:"uk"`
	Company string `json:"co"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 identity tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < minSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

func (i *Issuer) Issue(userKey, company string) (string, error) {
	if userKey == "" || company == "" {
		return "", errors.New("user key and company are required")
	}
	now := time.Now()
	claims := Claims{
		UserKey: userKey,
		Company: company,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.AppName,
			Subject:   userKey,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse validates a token and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(constants.AppName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserKey == "" || claims.Company == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Enroller is the store surface needed to enroll users.
type Enroller interface {
	EnrollUser(ctx context.Context, company, userKey string) error
}

// Enroll adds a user to company and returns their identity token. An empty
// userKey gets a random one.
func Enroll(ctx context.Context, store Enroller, issuer *Issuer, company, userKey string) (token, key string, err error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return "", "", errors.New("company is required")
	}
	key = strings.TrimSpace(userKey)
	if key == "" {
		key = uuid.NewString()
	}
	if err := store.EnrollUser(ctx, company, key); err != nil {
		return "", "", fmt.Errorf("failed to enroll user: %w", err)
	}
	token, err = issuer.Issue(key, company)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}
	logger.Info("Enrolled user", "company", company)
	return token, key, nil
}
