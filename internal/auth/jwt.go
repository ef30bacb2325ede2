package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT generates a signed token for an account
func (s *Service) GenerateJWT(accountID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": accountID,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a token and returns the account ID it was issued for
func (s *Service) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	accountID, ok := claims["user_id"].(string)
	if !ok || accountID == "" {
		return "", fmt.Errorf("%w: user_id not found in token", ErrInvalidToken)
	}

	return accountID, nil
}

func defaultTokenTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 30 * 24 * time.Hour
	}
	return ttl
}
