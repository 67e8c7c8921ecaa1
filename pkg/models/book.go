package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

const (
	CategoryFiction        = "Fiction"
	CategoryNonFiction     = "Non-Fiction"
	CategoryScienceFiction = "Science Fiction"
	CategoryFantasy        = "Fantasy"
	CategoryMystery        = "Mystery"
	CategoryRomance        = "Romance"
	CategoryHistory        = "History"
	CategoryBiography      = "Biography"
	CategoryScience        = "Science"
	CategoryTechnology     = "Technology"
	CategoryProgramming    = "Programming"
	CategoryBusiness       = "Business"
	CategoryEducation      = "Education"
	CategoryPhilosophy     = "Philosophy"
	CategoryLiterature     = "Literature"
	CategoryOther          = "Other"
)

// Categories is the fixed set of catalog categories, in declaration order.
// Binding validation and the chatbot matcher both work off this list, and
// the matcher's name containment scan depends on the order.
var Categories = []string{
	CategoryFiction,
	CategoryNonFiction,
	CategoryScienceFiction,
	CategoryFantasy,
	CategoryMystery,
	CategoryRomance,
	CategoryHistory,
	CategoryBiography,
	CategoryScience,
	CategoryTechnology,
	CategoryProgramming,
	CategoryBusiness,
	CategoryEducation,
	CategoryPhilosophy,
	CategoryLiterature,
	CategoryOther,
}

// IsValidCategory reports whether name is one of the catalog categories.
func IsValidCategory(name string) bool {
	for _, category := range Categories {
		if category == name {
			return true
		}
	}
	return false
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID              int       `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Title           string    `bun:",nullzero" json:"title"`
	Author          string    `bun:",nullzero" json:"author"`
	ISBN            string    `bun:",nullzero" json:"isbn"`
	PublishedDate   string    `bun:",nullzero" json:"published_date"`
	AvailableCopies int       `json:"available_copies"`
	Category        string    `bun:",nullzero" json:"category"`
	Description     *string   `json:"description,omitempty"`
	ImagePath       *string   `json:"image_path,omitempty"`
}

// ImageURL returns the public URL for the book's cover image, or "" if the
// book has none.
func (b *Book) ImageURL() string {
	if b.ImagePath == nil || *b.ImagePath == "" {
		return ""
	}
	return fmt.Sprintf("/books/%d/image", b.ID)
}
