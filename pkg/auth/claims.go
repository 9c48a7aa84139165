package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Role    enums.OperatorRole
	AgentID *string
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID  uuid.UUID          `json:"user_id"`
	Role    enums.OperatorRole `json:"role"`
	AgentID *string            `json:"agent_id,omitempty"`
	jwt.RegisteredClaims
}

// Operator converts verified claims into the caller identity handlers act on.
func (c AccessTokenClaims) Operator() Operator {
	op := Operator{UserID: c.UserID, Role: c.Role}
	if c.AgentID != nil {
		op.AgentID = strings.TrimSpace(*c.AgentID)
	}
	return op
}
