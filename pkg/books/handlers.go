package books

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	bookService *Service
	imageDir    string
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:         &params.Limit,
		Offset:        &params.Offset,
		Search:        params.Search,
		Category:      params.Category,
		AvailableOnly: params.Available,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) categories(c echo.Context) error {
	resp := struct {
		Categories []string `json:"categories"`
	}{models.Categories}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:           params.Title,
		Author:          params.Author,
		ISBN:            params.ISBN,
		PublishedDate:   params.PublishedDate,
		AvailableCopies: params.AvailableCopies,
		Category:        params.Category,
		Description:     params.Description,
	}

	if err := h.bookService.CreateBook(ctx, book); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	// Bind params.
	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Fetch the book.
	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateBookOptions{Columns: []string{}}

	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Author != nil && *params.Author != book.Author {
		book.Author = *params.Author
		opts.Columns = append(opts.Columns, "author")
	}
	if params.ISBN != nil && *params.ISBN != book.ISBN {
		book.ISBN = *params.ISBN
		opts.Columns = append(opts.Columns, "isbn")
	}
	if params.PublishedDate != nil && *params.PublishedDate != book.PublishedDate {
		book.PublishedDate = *params.PublishedDate
		opts.Columns = append(opts.Columns, "published_date")
	}
	if params.AvailableCopies != nil && *params.AvailableCopies != book.AvailableCopies {
		book.AvailableCopies = *params.AvailableCopies
		opts.Columns = append(opts.Columns, "available_copies")
	}
	if params.Category != nil && *params.Category != book.Category {
		book.Category = *params.Category
		opts.Columns = append(opts.Columns, "category")
	}
	if params.Description != nil {
		book.Description = params.Description
		opts.Columns = append(opts.Columns, "description")
	}

	// Update the model.
	err = h.bookService.UpdateBook(ctx, book, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	// The image on disk is best-effort cleanup.
	if book.ImagePath != nil && *book.ImagePath != "" {
		if err := os.Remove(filepath.Join(h.imageDir, *book.ImagePath)); err != nil && !os.IsNotExist(err) {
			log := logger.FromContext(ctx)
			log.Warn("failed to remove book image", logger.Data{"book_id": id, "error": err.Error()})
		}
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) uploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UploadImagePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fileHeader, ok := params.FormFiles["image"]
	if !ok {
		return errcodes.ValidationError(`"image" file is required`)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return errors.WithStack(err)
	}

	mtype := mimetype.Detect(data)
	ext := ""
	switch mtype.String() {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	default:
		return errcodes.ValidationError("Image must be a JPEG, PNG, or WebP file")
	}

	if err := os.MkdirAll(h.imageDir, 0755); err != nil {
		return errors.WithStack(err)
	}

	filename := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(h.imageDir, filename), data, 0644); err != nil {
		return errors.WithStack(err)
	}

	oldImage := book.ImagePath
	book.ImagePath = &filename
	err = h.bookService.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"image_path"}})
	if err != nil {
		return errors.WithStack(err)
	}

	if oldImage != nil && *oldImage != "" {
		if err := os.Remove(filepath.Join(h.imageDir, *oldImage)); err != nil && !os.IsNotExist(err) {
			log := logger.FromContext(ctx)
			log.Warn("failed to remove old book image", logger.Data{"book_id": id, "error": err.Error()})
		}
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) image(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if book.ImagePath == nil || *book.ImagePath == "" {
		return errcodes.NotFound("Image")
	}

	return errors.WithStack(c.File(filepath.Join(h.imageDir, *book.ImagePath)))
}
