package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vivetti/salesdesk-backend/internal/repo"
	"github.com/vivetti/salesdesk-backend/pkg/config"
	"github.com/vivetti/salesdesk-backend/pkg/db"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
	"github.com/vivetti/salesdesk-backend/pkg/security"
)

const usernameConstraint = "users_username_key"

// ProvisionInput describes an operator account to create or update.
type ProvisionInput struct {
	Username    string
	Password    string
	DisplayName string
	Role        string
	AgentID     string
	Disabled    bool
}

// ProvisionResult reports what Provision did.
type ProvisionResult struct {
	Operator *OperatorDTO
	Created  bool
}

type operatorStore interface {
	Create(ctx context.Context, dto CreateOperatorDTO) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateProfile(ctx context.Context, user *models.User) error
}

// Provisioner creates and updates operator accounts from the command line.
type Provisioner struct {
	store    operatorStore
	password config.PasswordConfig
}

// NewProvisioner builds a Provisioner hashing passwords with cfg.
func NewProvisioner(store operatorStore, cfg config.PasswordConfig) (*Provisioner, error) {
	if store == nil {
		return nil, errors.New("operator store required")
	}
	return &Provisioner{store: store, password: cfg}, nil
}

// Provision upserts by username. An empty password keeps the existing hash on update.
func (p *Provisioner) Provision(ctx context.Context, in ProvisionInput) (*ProvisionResult, error) {
	username := NormalizeUsername(in.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	role, err := enums.ParseOperatorRole(strings.ToLower(strings.TrimSpace(in.Role)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	agentID := normalizeAgentID(&in.AgentID)
	if role == enums.OperatorRoleAgent && agentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id is required for agents")
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	existing, err := p.store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return p.update(ctx, existing, in, displayName, role, agentID)
	case !repo.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "lookup operator")
	}

	hash, err := p.hash(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := p.store.Create(ctx, CreateOperatorDTO{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         role,
		AgentID:      agentID,
	})
	if err != nil {
		if db.IsUniqueViolation(err, usernameConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create operator")
	}
	if in.Disabled {
		user.IsActive = false
		if err := p.store.UpdateProfile(ctx, user); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "disable operator")
		}
	}
	return &ProvisionResult{Operator: FromModel(user), Created: true}, nil
}

func (p *Provisioner) update(ctx context.Context, user *models.User, in ProvisionInput, displayName string, role enums.OperatorRole, agentID *string) (*ProvisionResult, error) {
	user.DisplayName = displayName
	user.Role = role
	user.AgentID = agentID
	user.IsActive = !in.Disabled
	if err := p.store.UpdateProfile(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update operator")
	}
	if in.Password != "" {
		hash, err := p.hash(in.Password)
		if err != nil {
			return nil, err
		}
		if err := p.store.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update password")
		}
		user.PasswordHash = hash
	}
	return &ProvisionResult{Operator: FromModel(user)}, nil
}

func (p *Provisioner) hash(password string) (string, error) {
	hash, err := security.HashPassword(password, p.password)
	if err != nil {
		if errors.Is(err, security.ErrWeakPassword) {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("password must be at least %d characters", security.MinPasswordLength))
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}
