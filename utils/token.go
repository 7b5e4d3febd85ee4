package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Service tokens are used by trusted internal callers (marketplace sync)
// that report received quantities without a user session.
type ServiceClaim struct {
	Service string `json:"service"`
	jwt.StandardClaims
}

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "Supplyline-Secret"
	}
	return secret
}

func ServiceTokenGenerate(service string) (string, error) {
	tokenLifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil {
		tokenLifespan = 24
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &ServiceClaim{
		Service: service,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour * time.Duration(tokenLifespan)).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	token, err := t.SignedString(jwtSecret)
	if err != nil {
		return "", err
	}

	return token, nil
}

func ServiceTokenValidate(token string) (*ServiceClaim, error) {
	parsed, err := jwt.ParseWithClaims(token, &ServiceClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*ServiceClaim)
	if !ok || !parsed.Valid || claims.Service == "" {
		return nil, fmt.Errorf("invalid service token")
	}
	return claims, nil
}
