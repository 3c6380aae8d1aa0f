package service

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin = "admin"
	tokenTTL  = 24 * time.Hour
)

// AuthService login de la cuenta admin configurada por entorno
// (ADMIN_USER + ADMIN_PASSWORD_HASH en bcrypt).
type AuthService struct {
	adminUser    string
	passwordHash []byte
	jwtSecret    []byte
}

func NewAuthService(adminUser, passwordHash, secret string) *AuthService {
	return &AuthService{
		adminUser:    adminUser,
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(secret),
	}
}

// Enabled falso si no hay hash configurado: nadie puede loguearse.
func (s *AuthService) Enabled() bool {
	return len(s.passwordHash) > 0
}

// Login valida las credenciales y devuelve un JWT con role=admin.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUser)) == 1
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil || !userOK {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  s.adminUser,
		"role": RoleAdmin,
		"exp":  time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

// HashPassword genera el valor para ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
