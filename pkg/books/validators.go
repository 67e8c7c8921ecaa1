package books

import "mime/multipart"

type ListBooksQuery struct {
	Limit     int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset    int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search    *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
	Category  *string `query:"category" json:"category,omitempty" validate:"omitempty,category"`
	Available bool    `query:"available" json:"available,omitempty"`
}

type CreateBookPayload struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Author          string  `json:"author" validate:"required,max=100"`
	ISBN            string  `json:"isbn" validate:"required,max=13"`
	PublishedDate   string  `json:"published_date" validate:"required,date,ne="`
	AvailableCopies int     `json:"available_copies" validate:"min=0"`
	Category        string  `json:"category" default:"Other" validate:"category,ne="`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type UpdateBookPayload struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Author          *string `json:"author,omitempty" validate:"omitempty,max=100"`
	ISBN            *string `json:"isbn,omitempty" validate:"omitempty,max=13"`
	PublishedDate   *string `json:"published_date,omitempty" validate:"omitempty,date,ne="`
	AvailableCopies *int    `json:"available_copies,omitempty" validate:"omitempty,min=0"`
	Category        *string `json:"category,omitempty" validate:"omitempty,category,ne="`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// UploadImagePayload carries the multipart form for a cover image upload. The
// binder places uploaded files into FormFiles.
type UploadImagePayload struct {
	FormFiles map[string]*multipart.FileHeader `json:"-"`
}
