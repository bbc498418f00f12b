package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
)

const issuer = "stockroom"

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrRevokedToken   = errors.New("token has been revoked")
)

type Claims struct {
	UserID   uuid.UUID   `json:"user_id"`
	TenantID uuid.UUID   `json:"tenant_id"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies identity tokens. The secret is fixed at
// construction.
type JWTService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, expiry time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// WithClock returns a copy of the service that stamps tokens using now.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	c := *s
	c.now = now
	return &c
}

func (s *JWTService) Expiry() time.Duration {
	return s.expiry
}

func (s *JWTService) GenerateToken(userID, tenantID uuid.UUID, role models.Role) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformedToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrMalformedToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}
	if claims.UserID == uuid.Nil || claims.TenantID == uuid.Nil || !claims.Role.Valid() {
		return nil, ErrMalformedToken
	}

	return claims, nil
}
