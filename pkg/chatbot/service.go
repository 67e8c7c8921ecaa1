package chatbot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const (
	// KindSimilar through KindError tag what shape of answer a query
	// produced. The frontend keys its rendering off these.
	KindSimilar      = "similar"
	KindCategory     = "category"
	KindBeginner     = "beginner"
	KindPersonalized = "personalized"
	KindGeneral      = "general"
	KindAuthor       = "author"
	KindSearch       = "search"
	KindError        = "error"
)

// Result is a single chatbot answer. A degraded query (nothing matched,
// no title given) still produces a Result with KindError rather than an
// error; the error return of ProcessQuery is for database failures only.
type Result struct {
	Kind          string
	Message       string
	Books         []*models.Book
	ReferenceBook *models.Book
	Category      *string
}

// route pairs a keyword predicate with its handler. Routes are scanned in
// order and the first matching predicate wins, so the more specific intents
// sit above the generic ones.
type route struct {
	matches func(query string) bool
	handle  func(ctx context.Context, query string, member *models.Member) (*Result, error)
}

// Service answers book recommendation queries. It only ever reads; all
// state lives in the catalog and the transaction ledger.
type Service struct {
	db     *bun.DB
	routes []route
}

func NewService(db *bun.DB) *Service {
	svc := &Service{db: db}
	svc.routes = []route{
		{matchesAny("similar", "like", "same as", "recommend like"), svc.findSimilarBooks},
		{matchesAny("most borrowed", "popular", "top", "best"), svc.findMostBorrowed},
		{matchesAny("beginner", "start", "learn", "introduction", "intro"), svc.findBeginnerBooks},
		{matchesAny("recommend", "suggest", "what should", "what can"), svc.recommend},
		{matchesCategoryName, svc.findByCategory},
		{matchesAny("author", "by"), svc.findByAuthor},
	}
	return svc
}

// ProcessQuery routes the query through the intent table, falling through to
// a general keyword search when nothing more specific matches. Keyword
// checks are substring containment over the lowercased query.
func (svc *Service) ProcessQuery(ctx context.Context, query string, member *models.Member) (*Result, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))

	for _, r := range svc.routes {
		if r.matches(normalized) {
			result, err := r.handle(ctx, normalized, member)
			return result, errors.WithStack(err)
		}
	}

	result, err := svc.searchBooks(ctx, normalized, member)
	return result, errors.WithStack(err)
}

func matchesAny(keywords ...string) func(string) bool {
	return func(query string) bool {
		for _, keyword := range keywords {
			if strings.Contains(query, keyword) {
				return true
			}
		}
		return false
	}
}

func matchesCategoryName(query string) bool {
	return findCategory(query) != nil
}

// findCategory returns the first catalog category whose name appears in the
// query, in the order the categories are declared.
func findCategory(query string) *string {
	for _, category := range models.Categories {
		if strings.Contains(query, strings.ToLower(category)) {
			c := category
			return &c
		}
	}
	return nil
}

// stripStopWords drops the filler words of a phrasing so only the
// title/author terms remain.
func stripStopWords(query string, stopWords []string) []string {
	keywords := []string{}
	for _, word := range strings.Fields(query) {
		stopped := false
		for _, stop := range stopWords {
			if word == stop {
				stopped = true
				break
			}
		}
		if !stopped {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func (svc *Service) findSimilarBooks(ctx context.Context, query string, member *models.Member) (*Result, error) {
	keywords := stripStopWords(query, []string{"similar", "to", "like", "same", "as", "recommend", "suggest", "book", "books"})
	if len(keywords) == 0 {
		return &Result{
			Kind:    KindError,
			Message: "I couldn't find the book you're looking for. Please mention a book title.",
			Books:   []*models.Book{},
		}, nil
	}

	reference := &models.Book{}
	err := svc.db.
		NewSelect().
		Model(reference).
		WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			for _, keyword := range keywords {
				pattern := "%" + keyword + "%"
				sq = sq.WhereOr("b.title LIKE ?", pattern).WhereOr("b.author LIKE ?", pattern)
			}
			return sq
		}).
		Order("b.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Result{
				Kind:    KindError,
				Message: fmt.Sprintf("I couldn't find a book matching '%s' in our library.", strings.Join(keywords, " ")),
				Books:   []*models.Book{},
			}, nil
		}
		return nil, errors.WithStack(err)
	}

	books := []*models.Book{}
	err = svc.db.
		NewSelect().
		Model(&books).
		WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				WhereOr("b.category = ?", reference.Category).
				WhereOr("b.author = ?", reference.Author).
				WhereOr("b.title LIKE ?", "%"+keywords[0]+"%")
		}).
		Where("b.id != ?", reference.ID).
		Where("b.available_copies > 0").
		Order("b.id ASC").
		Limit(5).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(books) > 0 {
		return &Result{
			Kind:          KindSimilar,
			Message:       fmt.Sprintf("Here are books similar to '%s' by %s:", reference.Title, reference.Author),
			ReferenceBook: reference,
			Books:         books,
		}, nil
	}

	err = svc.db.
		NewSelect().
		Model(&books).
		Where("b.available_copies > 0").
		Where("b.id != ?", reference.ID).
		Order("b.id ASC").
		Limit(5).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Result{
		Kind:          KindSimilar,
		Message:       fmt.Sprintf("I found '%s' but couldn't find similar books. Here are some available books:", reference.Title),
		ReferenceBook: reference,
		Books:         books,
	}, nil
}

// categoryAliases maps casual phrasings onto catalog categories when no
// category name appears verbatim.
var categoryAliases = []struct {
	keyword  string
	category string
}{
	{"history", models.CategoryHistory},
	{"programming", models.CategoryProgramming},
	{"tech", models.CategoryTechnology},
	{"science", models.CategoryScience},
	{"fiction", models.CategoryFiction},
	{"fantasy", models.CategoryFantasy},
	{"mystery", models.CategoryMystery},
	{"romance", models.CategoryRomance},
}

func (svc *Service) findMostBorrowed(ctx context.Context, query string, member *models.Member) (*Result, error) {
	category := findCategory(query)
	if category == nil {
		for _, alias := range categoryAliases {
			if strings.Contains(query, alias.keyword) {
				c := alias.category
				category = &c
				break
			}
		}
	}

	if category != nil {
		books, err := svc.popularBooks(ctx, category, false, 5)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if len(books) > 0 {
			return &Result{
				Kind:     KindCategory,
				Message:  fmt.Sprintf("Here are the most borrowed books in the %s category:", *category),
				Category: category,
				Books:    books,
			}, nil
		}
	}

	books, err := svc.popularBooks(ctx, nil, false, 5)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	allCategories := "All Categories"
	return &Result{
		Kind:     KindCategory,
		Message:  "Here are the most borrowed books in our library:",
		Category: &allCategories,
		Books:    books,
	}, nil
}

func (svc *Service) findBeginnerBooks(ctx context.Context, query string, member *models.Member) (*Result, error) {
	topic := findCategory(query)

	books := []*models.Book{}
	if topic != nil {
		err := svc.db.
			NewSelect().
			Model(&books).
			Where("b.category = ?", *topic).
			WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
				return sq.
					WhereOr("b.title LIKE ?", "%introduction%").
					WhereOr("b.title LIKE ?", "%beginner%").
					WhereOr("b.title LIKE ?", "%basics%").
					WhereOr("b.title LIKE ?", "%fundamentals%").
					WhereOr("b.description LIKE ?", "%beginner%").
					WhereOr("b.description LIKE ?", "%introduction%")
			}).
			Where("b.available_copies > 0").
			Order("b.id ASC").
			Limit(5).
			Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if len(books) == 0 {
			err = svc.db.
				NewSelect().
				Model(&books).
				Where("b.category = ?", *topic).
				Where("b.available_copies > 0").
				Order("b.id ASC").
				Limit(5).
				Scan(ctx)
			if err != nil {
				return nil, errors.WithStack(err)
			}
		}
	} else {
		err := svc.db.
			NewSelect().
			Model(&books).
			WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
				return sq.
					WhereOr("b.title LIKE ?", "%introduction%").
					WhereOr("b.title LIKE ?", "%beginner%").
					WhereOr("b.title LIKE ?", "%basics%").
					WhereOr("b.description LIKE ?", "%beginner%")
			}).
			Where("b.available_copies > 0").
			Order("b.id ASC").
			Limit(5).
			Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if len(books) > 0 {
		topicText := ""
		if topic != nil {
			topicText = fmt.Sprintf(" for %s", *topic)
		}
		return &Result{
			Kind:    KindBeginner,
			Message: fmt.Sprintf("Here are some beginner-friendly books%s:", topicText),
			Books:   books,
		}, nil
	}

	err := svc.db.
		NewSelect().
		Model(&books).
		Where("b.available_copies > 0").
		Order("b.id ASC").
		Limit(5).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Result{
		Kind:    KindBeginner,
		Message: "I couldn't find specific beginner books. Here are some available books:",
		Books:   books,
	}, nil
}

func (svc *Service) recommend(ctx context.Context, query string, member *models.Member) (*Result, error) {
	if member == nil {
		return svc.generalRecommendations(ctx)
	}

	transactions := []*models.Transaction{}
	err := svc.db.
		NewSelect().
		Model(&transactions).
		Relation("Book").
		Where("t.member_id = ?", member.ID).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(transactions) == 0 {
		books, err := svc.popularBooks(ctx, nil, true, 5)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return &Result{
			Kind:    KindPersonalized,
			Message: "You haven't borrowed any books yet. Here are some popular recommendations to get you started:",
			Books:   books,
		}, nil
	}

	categories := []string{}
	authors := []string{}
	issuedBookIDs := []int{}
	seenCategories := map[string]bool{}
	seenAuthors := map[string]bool{}
	for _, transaction := range transactions {
		if transaction.Book == nil {
			continue
		}
		if !seenCategories[transaction.Book.Category] {
			seenCategories[transaction.Book.Category] = true
			categories = append(categories, transaction.Book.Category)
		}
		if !seenAuthors[transaction.Book.Author] {
			seenAuthors[transaction.Book.Author] = true
			authors = append(authors, transaction.Book.Author)
		}
		if transaction.Status == models.TransactionStatusIssued {
			issuedBookIDs = append(issuedBookIDs, transaction.BookID)
		}
	}

	books := []*models.Book{}
	q := svc.db.
		NewSelect().
		Model(&books).
		WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				WhereOr("b.category IN (?)", bun.In(categories)).
				WhereOr("b.author IN (?)", bun.In(authors))
		}).
		Where("b.available_copies > 0").
		Order("b.id ASC").
		Limit(5)
	if len(issuedBookIDs) > 0 {
		q = q.Where("b.id NOT IN (?)", bun.In(issuedBookIDs))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	if len(books) > 0 {
		return &Result{
			Kind:    KindPersonalized,
			Message: "Based on your reading history, here are some personalized recommendations:",
			Books:   books,
		}, nil
	}

	books, err = svc.popularBooks(ctx, nil, true, 5)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Result{
		Kind:    KindPersonalized,
		Message: "Based on your preferences, here are some popular books you might like:",
		Books:   books,
	}, nil
}

func (svc *Service) generalRecommendations(ctx context.Context) (*Result, error) {
	books, err := svc.popularBooks(ctx, nil, true, 5)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Result{
		Kind:    KindGeneral,
		Message: "Here are some popular book recommendations:",
		Books:   books,
	}, nil
}

func (svc *Service) findByCategory(ctx context.Context, query string, member *models.Member) (*Result, error) {
	category := findCategory(query)
	if category == nil {
		return &Result{
			Kind:    KindError,
			Message: "I couldn't identify the category. Please try again.",
			Books:   []*models.Book{},
		}, nil
	}

	books := []*models.Book{}
	err := svc.db.
		NewSelect().
		Model(&books).
		Where("b.category = ?", *category).
		Where("b.available_copies > 0").
		Order("b.id ASC").
		Limit(10).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Result{
		Kind:     KindCategory,
		Message:  fmt.Sprintf("Here are available books in the %s category:", *category),
		Category: category,
		Books:    books,
	}, nil
}

func (svc *Service) findByAuthor(ctx context.Context, query string, member *models.Member) (*Result, error) {
	keywords := stripStopWords(query, []string{"author", "by", "books", "book", "from"})

	if len(keywords) > 0 {
		books := []*models.Book{}
		err := svc.db.
			NewSelect().
			Model(&books).
			WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
				for _, keyword := range keywords {
					sq = sq.WhereOr("b.author LIKE ?", "%"+keyword+"%")
				}
				return sq
			}).
			Where("b.available_copies > 0").
			Order("b.id ASC").
			Limit(10).
			Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if len(books) > 0 {
			return &Result{
				Kind:    KindAuthor,
				Message: fmt.Sprintf("Here are books by authors matching '%s':", strings.Join(keywords, " ")),
				Books:   books,
			}, nil
		}
	}

	return &Result{
		Kind:    KindError,
		Message: "I couldn't find books by that author. Please try again.",
		Books:   []*models.Book{},
	}, nil
}

func (svc *Service) searchBooks(ctx context.Context, query string, member *models.Member) (*Result, error) {
	words := strings.Fields(query)
	if len(words) > 0 {
		books := []*models.Book{}
		err := svc.db.
			NewSelect().
			Model(&books).
			WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
				for _, word := range words {
					pattern := "%" + word + "%"
					sq = sq.
						WhereOr("b.title LIKE ?", pattern).
						WhereOr("b.author LIKE ?", pattern).
						WhereOr("b.category LIKE ?", pattern)
				}
				return sq
			}).
			Where("b.available_copies > 0").
			Order("b.id ASC").
			Limit(10).
			Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if len(books) > 0 {
			return &Result{
				Kind:    KindSearch,
				Message: fmt.Sprintf("Here are books matching '%s':", query),
				Books:   books,
			}, nil
		}
	}

	return &Result{
		Kind:    KindError,
		Message: fmt.Sprintf("I couldn't find any books matching '%s'. Try a different search term.", query),
		Books:   []*models.Book{},
	}, nil
}

// popularBooks ranks by all-time borrow count, breaking ties on remaining
// stock.
func (svc *Service) popularBooks(ctx context.Context, category *string, availableOnly bool, limit int) ([]*models.Book, error) {
	books := []*models.Book{}

	q := svc.db.
		NewSelect().
		Model(&books).
		OrderExpr("(SELECT COUNT(*) FROM transactions WHERE transactions.book_id = b.id) DESC").
		OrderExpr("b.available_copies DESC").
		Limit(limit)

	if category != nil {
		q = q.Where("b.category = ?", *category)
	}
	if availableOnly {
		q = q.Where("b.available_copies > 0")
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return books, nil
}
