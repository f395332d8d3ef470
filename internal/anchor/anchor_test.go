package anchor

import (
	"testing"
	"time"

	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_IgnoresKeyOrder(t *testing.T) {
	a, err := Digest(map[string]any{"b": 1, "a": "x"})
	require.NoError(t, err)
	b, err := Digest(struct {
		A string `json:"a"`
		B int    `json:"b"`
	}{A: "x", B: 1})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 2+64)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "0x8f2d...3a1b", Short("0x8f2d00000000000000003a1b"))
	assert.Equal(t, "0xabc", Short("0xabc"))
}

func buildChain(t *testing.T, n int) []domain.AuditLog {
	t.Helper()
	base := time.Date(2024, 5, 24, 10, 0, 0, 0, time.UTC)
	var chain []domain.AuditLog
	prev := ""
	for i := 0; i < n; i++ {
		e := domain.AuditLog{
			ID:        "LOG-" + string(rune('A'+i)),
			Seq:       int64(i + 1),
			IP:        "10.0.0.1",
			UserAgent: "curl/8.0",
			Status:    domain.AuditStatusVerified,
			User:      "admin@finsentsis.com",
			Action:    domain.AuditActionHTTPRequest,
			Resource:  "api",
			Details:   `{"i":` + string(rune('0'+i)) + `}`,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			PrevHash:  prev,
		}
		h, err := ChainHash(prev, e)
		require.NoError(t, err)
		e.Hash = h
		chain = append(chain, e)
		prev = h
	}
	return chain
}

func TestVerify(t *testing.T) {
	chain := buildChain(t, 4)
	assert.Equal(t, -1, Verify(chain))
	assert.Equal(t, -1, Verify(nil))

	t.Run("tampered field", func(t *testing.T) {
		c := append([]domain.AuditLog(nil), chain...)
		c[2].Action = "login"
		assert.Equal(t, 2, Verify(c))
	})

	tamper := map[string]func(e *domain.AuditLog){
		"seq":        func(e *domain.AuditLog) { e.Seq = 99 },
		"id":         func(e *domain.AuditLog) { e.ID = "LOG-Z" },
		"ip":         func(e *domain.AuditLog) { e.IP = "192.168.1.9" },
		"user agent": func(e *domain.AuditLog) { e.UserAgent = "evil" },
		"status":     func(e *domain.AuditLog) { e.Status = "Pending" },
	}
	for name, edit := range tamper {
		t.Run("tampered "+name, func(t *testing.T) {
			c := append([]domain.AuditLog(nil), chain...)
			edit(&c[3])
			assert.Equal(t, 3, Verify(c))
		})
	}

	t.Run("broken link", func(t *testing.T) {
		c := append([]domain.AuditLog(nil), chain...)
		c[1].PrevHash = "0xdead"
		assert.Equal(t, 1, Verify(c))
	})
}
