package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token audiences. Customers shop; staff review prescriptions and manage
// online orders. The two pools never share IDs, so the audience claim is
// what keeps a customer token out of the staff surface.
const (
	AudienceCustomer = "customer"
	AudienceStaff    = "staff"
)

func secretKey() []byte {
	if key := os.Getenv("JWT_SECRET"); key != "" {
		return []byte(key)
	}
	// Local development fallback. Production must set JWT_SECRET.
	return []byte("medimart-dev-secret-change-me")
}

// GenerateToken creates a new JWT for a given subject ID and audience.
func GenerateToken(subjectID int64, audience string) (string, error) {
	// 1. Create the claims. "sub" is the customer/staff ID, "aud" tells
	// the middleware which pool the ID belongs to.
	claims := jwt.MapClaims{
		"sub": subjectID,
		"aud": audience,
		"exp": time.Now().Add(time.Hour * 72).Unix(), // Expires in 3 days
		"iat": time.Now().Unix(),
	}

	// 2. Sign with HS256 and our secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey())
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string.
// It returns the subject ID and audience if the token is valid.
func ValidateToken(tokenString string) (int64, string, error) {
	// 1. Parse the token string.
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 2. Check the signing method matches what we issue.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return 0, "", err // Token parsing failed (e.g., expired, malformed)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", errors.New("invalid token")
	}

	// 3. Get the subject ID from the claims.
	subFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", errors.New("invalid subject claim")
	}

	// 4. Get the audience. Tokens minted before the audience claim existed
	// are treated as customer tokens.
	audience, _ := claims["aud"].(string)
	if audience == "" {
		audience = AudienceCustomer
	}

	// Convert the float64 (JSON's number type) to int64
	return int64(subFloat), audience, nil
}
