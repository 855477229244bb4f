package service

import (
	"strings"

	"github.com/Astemirdum/catalog-service/catalog/internal/errs"
	"github.com/Astemirdum/catalog-service/catalog/internal/model"
)

// normalizeNames trims names and drops repeats, keeping first occurrence order.
func normalizeNames(field string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errs.Validation("%s: empty name", field)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func normalizeISBN(isbn *string) *string {
	if isbn == nil {
		return nil
	}
	v := strings.TrimSpace(*isbn)
	return &v
}

func newBook(req model.CreateBookRequest) (model.NewBook, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.NewBook{}, errs.Validation("title is required")
	}
	if req.PublicationYear == nil {
		return model.NewBook{}, errs.Validation("publication_year is required")
	}
	if req.Authors == nil {
		return model.NewBook{}, errs.Validation("authors is required")
	}
	authors, err := normalizeNames("authors", req.Authors)
	if err != nil {
		return model.NewBook{}, err
	}
	genres, err := normalizeNames("genres", req.Genres)
	if err != nil {
		return model.NewBook{}, err
	}

	nb := model.NewBook{
		Title:           title,
		Authors:         authors,
		Genres:          genres,
		PublicationYear: *req.PublicationYear,
		CopiesAvailable: model.DefaultCopies,
		IsActive:        model.DefaultIsActive,
	}
	if isbn := normalizeISBN(req.ISBN); isbn != nil && *isbn != "" {
		nb.ISBN = isbn
	}
	if req.CopiesAvailable != nil {
		if *req.CopiesAvailable < 0 {
			return model.NewBook{}, errs.Validation("copies_available must be >= 0")
		}
		nb.CopiesAvailable = *req.CopiesAvailable
	}
	if req.IsActive != nil {
		nb.IsActive = *req.IsActive
	}
	return nb, nil
}

func normalizeUpdate(req model.UpdateBookRequest) (model.UpdateBookRequest, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return req, errs.Validation("title must not be empty")
		}
		req.Title = &title
	}
	if req.CopiesAvailable != nil && *req.CopiesAvailable < 0 {
		return req, errs.Validation("copies_available must be >= 0")
	}
	req.ISBN = normalizeISBN(req.ISBN)
	if req.Authors != nil {
		authors, err := normalizeNames("authors", *req.Authors)
		if err != nil {
			return req, err
		}
		req.Authors = &authors
	}
	if req.Genres != nil {
		genres, err := normalizeNames("genres", *req.Genres)
		if err != nil {
			return req, err
		}
		req.Genres = &genres
	}
	return req, nil
}

// normalizePaging fills defaults, caps per_page at model.MaxPerPage and
// rejects pages whose offset would not fit in an int.
func normalizePaging(p model.ListParams) (model.ListParams, error) {
	if p.Page > model.MaxPage {
		return p, errs.Validation("page must be <= %d", model.MaxPage)
	}
	if p.Page < 1 {
		p.Page = model.DefaultPage
	}
	if p.PerPage < 1 {
		p.PerPage = model.DefaultPerPage
	}
	if p.PerPage > model.MaxPerPage {
		p.PerPage = model.MaxPerPage
	}
	return p, nil
}
