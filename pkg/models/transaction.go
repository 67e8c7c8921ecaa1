package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TransactionStatusIssued   = "Issued"
	TransactionStatusReturned = "Returned"
)

// Transaction is a loan record. A transaction with status Issued has no
// return date; marking it Returned sets the return date. Stock accounting
// for available copies happens in the loans service, never here.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID            int          `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	MemberID      int          `bun:",nullzero" json:"member_id"`
	Member        *Member      `bun:"rel:belongs-to,join:member_id=id" json:"member,omitempty"`
	BookID        int          `bun:",nullzero" json:"book_id"`
	Book          *Book        `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	BookRequestID *int         `json:"book_request_id,omitempty"`
	BookRequest   *BookRequest `bun:"rel:belongs-to,join:book_request_id=id" json:"book_request,omitempty"`
	IssueDate     time.Time    `json:"issue_date"`
	ReturnDate    *time.Time   `json:"return_date,omitempty"`
	Status        string       `bun:",nullzero" json:"status"`
}
