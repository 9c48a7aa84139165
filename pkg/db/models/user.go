package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
)

// User is an operator account: an administrator or a sales agent.
type User struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Username     string             `gorm:"column:username;type:text;not null;uniqueIndex"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	DisplayName  string             `gorm:"column:display_name;not null"`
	Role         enums.OperatorRole `gorm:"column:role;type:text;not null"`
	AgentID      *string            `gorm:"column:agent_id"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time         `gorm:"column:last_login_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
