// Package anchor computes the content hashes that make audit entries and
// scan reports tamper-evident.
package anchor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/gowebpki/jcs"
)

// Digest returns "0x" + hex(sha256(JCS(json(v)))). Canonicalization makes the
// digest independent of field order and whitespace.
func Digest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	sum := sha256.Sum256(canon)
	return "0x" + hex.EncodeToString(sum[:]), nil
}

// Short abbreviates a digest the way the dashboard displays it: 0x8f2d...3a1b.
func Short(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:6] + "..." + digest[len(digest)-4:]
}

// chainFields is the hashed projection of an audit entry: every stored
// column except the hash itself.
type chainFields struct {
	PrevHash   string `json:"prev_hash"`
	Seq        int64  `json:"seq"`
	ID         string `json:"id"`
	User       string `json:"user"`
	Action     string `json:"action"`
	Resource   string `json:"resource"`
	ResourceID string `json:"resource_id"`
	Details    string `json:"details"`
	IP         string `json:"ip"`
	UserAgent  string `json:"user_agent"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
}

// ChainHash hashes an audit entry together with its predecessor's hash.
func ChainHash(prevHash string, e domain.AuditLog) (string, error) {
	return Digest(chainFields{
		PrevHash:   prevHash,
		Seq:        e.Seq,
		ID:         e.ID,
		User:       e.User,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Details:    e.Details,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt.UnixMicro(),
	})
}

// Verify walks a chain (oldest first) and returns the index of the first
// entry whose link or hash does not match, or -1 when the chain is intact.
func Verify(chain []domain.AuditLog) int {
	prev := ""
	for i, e := range chain {
		if e.PrevHash != prev {
			return i
		}
		h, err := ChainHash(prev, e)
		if err != nil || h != e.Hash {
			return i
		}
		prev = e.Hash
	}
	return -1
}
