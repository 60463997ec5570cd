package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
)

// Profile is the per-account row of the users table.
type Profile struct {
	ID           uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Nome         string        `gorm:"column:nome" json:"nome"`
	Role         Role          `gorm:"column:role" json:"role"`
	StatusPedido RequestStatus `gorm:"column:status_pedido" json:"status_pedido"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Profile) TableName() string {
	return UsersTable
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// FallbackProfile derives a profile for an identity that has no row yet: the
// name comes from the signup metadata or the e-mail local part.
func FallbackProfile(id uuid.UUID, email string, metadata map[string]interface{}) *Profile {
	nome := ""
	if v, ok := metadata["nome"].(string); ok {
		nome = strings.TrimSpace(v)
	}
	if nome == "" && email != "" {
		nome = helpers.EmailLocalPart(email)
	}
	if nome == "" {
		nome = "Usuário"
	}
	return &Profile{
		ID:           id,
		Nome:         nome,
		Role:         RoleRegistrant,
		StatusPedido: RequestApproved,
		CreatedAt:    time.Now().UTC(),
	}
}

type SignupRequest struct {
	Nome            string `json:"nome" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
