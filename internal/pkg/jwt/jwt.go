package jwt

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const sseTokenTTL = 5 * time.Minute

type Service interface {
	// GenerateAccessToken signs an access token. Production tokens come from
	// the HR system; this exists for tests and the operator CLI.
	GenerateAccessToken(c auth.Claims) (token string, expiresAt int64, err error)
	GenerateSSEToken(c auth.Claims) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (auth.Claims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(c auth.Claims) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()
	token, err = j.sign(c, auth.TokenTypeAccess, expiresAt)
	return token, expiresAt, err
}

// GenerateSSEToken issues a short-lived token for EventSource clients, which
// cannot send an Authorization header.
func (j *JWTService) GenerateSSEToken(c auth.Claims) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(sseTokenTTL).Unix()
	token, err = j.sign(c, auth.TokenTypeSSE, expiresAt)
	if err != nil {
		return "", 0, err
	}
	return token, int(sseTokenTTL.Seconds()), nil
}

func (j *JWTService) ValidateSSEToken(tokenString string) (auth.Claims, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != auth.TokenTypeSSE {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return ClaimsFromMap(claims)
}

func (j *JWTService) sign(c auth.Claims, tokenType string, expiresAt int64) (string, error) {
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":     c.UserID,
		"company_id":  c.CompanyID,
		"employee_id": returnValueOrNil(c.EmployeeID),
		"role":        string(c.Role),
		"type":        tokenType,
		"exp":         expiresAt,
	})
	return tokenString, err
}

// ClaimsFromMap reads the identity claims of a decoded token.
func ClaimsFromMap(m map[string]interface{}) (auth.Claims, error) {
	var c auth.Claims
	var ok bool
	if c.UserID, ok = m["user_id"].(string); !ok || c.UserID == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	role, _ := m["role"].(string)
	c.Role = auth.Role(role)
	c.CompanyID, _ = m["company_id"].(string)
	if employeeID, ok := m["employee_id"].(string); ok && employeeID != "" {
		c.EmployeeID = &employeeID
	}
	return c, nil
}

func returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
