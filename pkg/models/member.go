package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UserID     *int      `json:"user_id,omitempty"`
	User       *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	FullName   string    `bun:",nullzero" json:"full_name"`
	Email      string    `bun:",nullzero" json:"email"`
	Phone      string    `bun:",nullzero" json:"phone"`
	Address    string    `json:"address"`
	DateJoined time.Time `json:"date_joined"`
}
