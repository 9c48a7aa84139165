package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
)

// OperatorDTO is the transport shape that omits credentials.
type OperatorDTO struct {
	ID          uuid.UUID          `json:"id"`
	Username    string             `json:"username"`
	DisplayName string             `json:"display_name"`
	Role        enums.OperatorRole `json:"role"`
	AgentID     *string            `json:"agent_id,omitempty"`
	IsActive    bool               `json:"is_active"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// CreateOperatorDTO holds what the repo needs to persist a new operator.
type CreateOperatorDTO struct {
	Username     string
	PasswordHash string
	DisplayName  string
	Role         enums.OperatorRole
	AgentID      *string
}

func FromModel(u *models.User) *OperatorDTO {
	if u == nil {
		return nil
	}
	return &OperatorDTO{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		AgentID:     u.AgentID,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateOperatorDTO) ToModel() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Username:     NormalizeUsername(c.Username),
		PasswordHash: c.PasswordHash,
		DisplayName:  strings.TrimSpace(c.DisplayName),
		Role:         c.Role,
		AgentID:      normalizeAgentID(c.AgentID),
		IsActive:     true,
	}
}

// NormalizeUsername lowercases and trims a login name.
func NormalizeUsername(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeAgentID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
