package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RequestStatusPending  = "Pending"
	RequestStatusApproved = "Approved"
	RequestStatusRejected = "Rejected"
)

// BookRequest is a patron's request to borrow a book. Approved and Rejected
// are terminal states; the workflow refuses to reprocess them.
type BookRequest struct {
	bun.BaseModel `bun:"table:book_requests,alias:br"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	MemberID    int       `bun:",nullzero" json:"member_id"`
	Member      *Member   `bun:"rel:belongs-to,join:member_id=id" json:"member,omitempty"`
	BookID      int       `bun:",nullzero" json:"book_id"`
	Book        *Book     `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	RequestDate time.Time `json:"request_date"`
	Status      string    `bun:",nullzero" json:"status"`
	AdminNotes  *string   `json:"admin_notes,omitempty"`
}
