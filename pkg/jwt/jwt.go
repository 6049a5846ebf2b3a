package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles de la aplicación.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleCajero    = "cajero"
)

// Claims del token de sesión. El rol decide el acceso a operaciones de bodega.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"` // "admin" | "bodeguero" | "cajero"
}

// Generate firma un token HS256 para userID con el rol dado.
func Generate(secret, userID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", errors.New("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID: userID,
		Role:   role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma (solo HS256) y expiración; devuelve userID y role.
// Tokens sin user_id usan el subject.
func Parse(secret, tokenString string) (userID, role string, err error) {
	if secret == "" {
		return "", "", errors.New("jwt: secret vacío")
	}
	var claims Claims
	_, err = jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", fmt.Errorf("jwt: %w", err)
	}
	userID = claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", "", errors.New("jwt: claims sin user_id")
	}
	return userID, claims.Role, nil
}
