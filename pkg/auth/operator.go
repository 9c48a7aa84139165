package auth

import (
	"strings"

	"github.com/google/uuid"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
)

// Operator is the authenticated caller a request acts on behalf of.
type Operator struct {
	UserID  uuid.UUID
	Role    enums.OperatorRole
	AgentID string
}

// IsAdmin reports whether the operator sees every agent's data.
func (o Operator) IsAdmin() bool {
	return o.Role == enums.OperatorRoleAdmin
}

// AgentScope returns the agent id every query must be restricted to, or nil for admins.
func (o Operator) AgentScope() *string {
	if o.IsAdmin() {
		return nil
	}
	id := strings.TrimSpace(o.AgentID)
	return &id
}

// CanAccessAgent reports whether data owned by agentID is visible to the operator.
func (o Operator) CanAccessAgent(agentID string) bool {
	if o.IsAdmin() {
		return true
	}
	return strings.TrimSpace(o.AgentID) != "" && strings.TrimSpace(o.AgentID) == strings.TrimSpace(agentID)
}
