package requests

import "github.com/Bervaline/Library-Management-System/pkg/models"

type ListRequestsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=Pending Approved Rejected"`
	Member *int    `query:"member_id" json:"member_id,omitempty" validate:"omitempty,min=1"`
}

type SubmitPayload struct {
	BookID int `json:"book_id" validate:"required,min=1"`
}

type RejectPayload struct {
	AdminNotes *string `json:"admin_notes,omitempty" mod:"trim" validate:"omitempty,max=500"`
}

type RequestsResponse struct {
	Requests []*models.BookRequest `json:"requests"`
	Total    int                   `json:"total"`
}
