package domain

import "time"

// AuthState is the position of a session in the login -> onboarding flow.
type AuthState string

// Auth states.
const (
	AuthUnauthenticated AuthState = "unauthenticated"
	AuthOnboarding      AuthState = "onboarding"
	AuthAuthenticated   AuthState = "authenticated"
)

// Session is the in-memory state of one dashboard user. It owns its own copy
// of the task catalog.
type Session struct {
	ID        string       `json:"id"`
	User      string       `json:"user"`
	State     AuthState    `json:"state"`
	Profile   *UserProfile `json:"profile,omitempty"`
	Tasks     []Task       `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.Profile = s.Profile.Clone()
	c.Tasks = CloneTasks(s.Tasks)
	return &c
}

// SessionContext is injected into request handlers by the token middleware.
type SessionContext struct {
	SessionID string `json:"session_id"`
	User      string `json:"user"`
}
