package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
)

var cfg = JWTConfig{Secret: "s3cret", Issuer: "finsentsis", ExpiresIn: time.Hour}

func TestValidateJWT(t *testing.T) {
	sess := &domain.Session{ID: "sess-1", User: "alex@acme.com"}
	token, err := GenerateJWT(sess, cfg)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.Subject)
	assert.Equal(t, "alex@acme.com", claims.User)

	_, err = ValidateJWT(token, JWTConfig{Secret: "other", Issuer: cfg.Issuer})
	assert.ErrorIs(t, err, port.ErrTokenInvalid)

	_, err = ValidateJWT(token, JWTConfig{Secret: cfg.Secret, Issuer: "someone-else"})
	assert.ErrorIs(t, err, port.ErrTokenInvalid)

	expired, err := GenerateJWT(sess, JWTConfig{Secret: cfg.Secret, Issuer: cfg.Issuer, ExpiresIn: -time.Minute})
	require.NoError(t, err)
	_, err = ValidateJWT(expired, cfg)
	assert.ErrorIs(t, err, port.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: cfg.Issuer}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateJWT(unsigned, cfg)
	assert.ErrorIs(t, err, port.ErrTokenInvalid)
}

func TestJWTMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(JWTMiddleware(cfg))
	app.Get("/me", func(c fiber.Ctx) error {
		return c.JSON(GetSessionContext(c))
	})

	token, err := GenerateJWT(&domain.Session{ID: "sess-1", User: "alex"}, cfg)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"query fallback", "", "?token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

type recordingWriter struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (w *recordingWriter) Record(_ context.Context, e domain.AuditLog) (domain.AuditLog, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, e)
	return e, nil
}

func (w *recordingWriter) Entries() []domain.AuditLog {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.AuditLog(nil), w.entries...)
}

func TestAuditMiddleware_RecordsWritesOnly(t *testing.T) {
	w := &recordingWriter{}
	app := fiber.New()
	app.Use(AuditMiddleware(w))
	app.Use(func(c fiber.Ctx) error {
		c.Locals("session", &domain.SessionContext{SessionID: "sess-1", User: "alex"})
		return c.Next()
	})
	app.Get("/read", func(c fiber.Ctx) error { return c.SendString("ok") })
	app.Post("/write", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/read", nil),
		httptest.NewRequest(http.MethodPost, "/write", nil),
	} {
		req.Header.Set("User-Agent", "test-agent")
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return len(w.Entries()) == 1 }, time.Second, 5*time.Millisecond)
	e := w.Entries()[0]
	assert.Equal(t, domain.AuditActionHTTPRequest, e.Action)
	assert.Equal(t, "alex", e.User)
	assert.Equal(t, "sess-1", e.ResourceID)
	assert.Equal(t, "test-agent", e.UserAgent)
	assert.Contains(t, e.Details, `"path":"/write"`)
	assert.Contains(t, e.Details, `"status":201`)
}
