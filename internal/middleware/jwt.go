package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
)

// JWTConfig holds JWT middleware configuration.
type JWTConfig struct {
	Secret    string
	Issuer    string
	ExpiresIn time.Duration
}

// Claims represents the session token payload. The subject is the session id.
type Claims struct {
	User string `json:"user"`
	jwt.RegisteredClaims
}

// JWTMiddleware creates a Fiber middleware that validates session tokens
// and injects a SessionContext into the request context.
func JWTMiddleware(cfg JWTConfig) fiber.Handler {
	return func(c fiber.Ctx) error {
		var token string

		// Try Authorization header first
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = parts[1]
			}
		}

		// Fallback: ?token= query param (for SSE/EventSource which can't set headers)
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization",
			})
		}

		claims, err := ValidateJWT(token, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals("session", &domain.SessionContext{
			SessionID: claims.Subject,
			User:      claims.User,
		})

		return c.Next()
	}
}

// GetSessionContext extracts the SessionContext from Fiber locals.
func GetSessionContext(c fiber.Ctx) *domain.SessionContext {
	s, ok := c.Locals("session").(*domain.SessionContext)
	if !ok {
		return nil
	}
	return s
}

// GenerateJWT signs a token for the given session.
func GenerateJWT(s *domain.Session, cfg JWTConfig) (string, error) {
	now := time.Now()
	claims := Claims{
		User: s.User,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ExpiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateJWT parses a session token and checks signature, issuer and expiry.
func ValidateJWT(tokenStr string, cfg JWTConfig) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, port.ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", port.ErrTokenInvalid, err)
	case claims.Subject == "":
		return nil, port.ErrTokenInvalid
	}
	return claims, nil
}
