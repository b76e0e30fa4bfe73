package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// AccessCodeGate checks the self-declared registration role against a shared
// code. It is a convenience gate in front of the registration form, not a
// security boundary: the server validates privileged registration itself.
type AccessCodeGate struct {
	hashes map[domain.Role][]byte
}

// Errors returned when the gate rejects a code.
var (
	ErrInvalidAdminCode = errors.New("Invalid admin registration code")
	ErrInvalidAgentCode = errors.New("Invalid support agent registration code")
)

// NewAccessCodeGate hashes the configured codes once at startup.
func NewAccessCodeGate(adminCode, agentCode string, cost int) (*AccessCodeGate, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	gate := &AccessCodeGate{hashes: make(map[domain.Role][]byte, 2)}
	for role, code := range map[domain.Role]string{
		domain.RoleAdmin:        adminCode,
		domain.RoleSupportAgent: agentCode,
	} {
		if code == "" {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
		if err != nil {
			return nil, fmt.Errorf("hash %s access code: %w", role, err)
		}
		gate.hashes[role] = hash
	}
	return gate, nil
}

// Check returns nil when role may register with code. USER never needs a
// code; a privileged role with no configured code is always rejected.
func (g *AccessCodeGate) Check(role domain.Role, code string) error {
	if role == domain.RoleUser || role == "" {
		return nil
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	rejected := ErrInvalidAgentCode
	if role == domain.RoleAdmin {
		rejected = ErrInvalidAdminCode
	}
	if g == nil || code == "" {
		return rejected
	}
	hash, ok := g.hashes[role]
	if !ok {
		return rejected
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(code)); err != nil {
		return rejected
	}
	return nil
}
