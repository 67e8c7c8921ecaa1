package loans

import "github.com/Bervaline/Library-Management-System/pkg/models"

type ListTransactionsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=Issued Returned"`
	Member *int    `query:"member_id" json:"member_id,omitempty" validate:"omitempty,min=1"`
	Book   *int    `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
}

type IssuePayload struct {
	MemberID int `json:"member_id" validate:"required,min=1"`
	BookID   int `json:"book_id" validate:"required,min=1"`
}

type BorrowPayload struct {
	BookID int `json:"book_id" validate:"required,min=1"`
}

type TransactionsResponse struct {
	Transactions []*models.Transaction `json:"transactions"`
	Total        int                   `json:"total"`
}

// ReturnResponse carries the updated transaction plus an optional warning
// when the return was a no-op because the book had already come back.
type ReturnResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	Warning     *string             `json:"warning,omitempty"`
}
