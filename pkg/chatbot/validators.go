package chatbot

type QueryPayload struct {
	Query string `json:"query" mod:"trim" validate:"required,max=500"`
}

// BookView is the trimmed book projection embedded in chatbot responses.
type BookView struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Category        string  `json:"category"`
	AvailableCopies int     `json:"available_copies"`
	ImageURL        string  `json:"image_url"`
	Description     *string `json:"description"`
}

type QueryResponse struct {
	Kind          string     `json:"kind"`
	Message       string     `json:"message"`
	Books         []BookView `json:"books"`
	ReferenceBook *BookView  `json:"reference_book,omitempty"`
	Category      *string    `json:"category,omitempty"`
}
