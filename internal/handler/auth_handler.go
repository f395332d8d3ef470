package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/middleware"
	"github.com/arturoeanton/finsentsis/internal/service"
)

// AuthHandler handles login, onboarding and the session profile.
type AuthHandler struct {
	sessions *service.SessionService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// RegisterPublic sets up routes that need no token.
func (h *AuthHandler) RegisterPublic(router fiber.Router) {
	router.Post("/auth/login", h.Login)
}

// Register sets up session routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/onboarding", h.Onboard)
	router.Get("/profile", h.Profile)
}

// Login opens a session and returns its token.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}

	token, sess, err := h.sessions.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"token":   token,
		"session": sess,
	})
}

// Onboard stores the organization profile of the session.
func (h *AuthHandler) Onboard(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	var body domain.UserProfile
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}

	sess, err := h.sessions.Onboard(c.Context(), sc.SessionID, body)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sess)
}

// Profile returns the session with its profile.
func (h *AuthHandler) Profile(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	sess, err := h.sessions.Session(c.Context(), sc.SessionID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sess)
}
