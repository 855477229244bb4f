package model

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

const (
	DefaultPage     = 1
	DefaultPerPage  = 10
	MaxPerPage      = 100
	// MaxPage keeps (page-1)*per_page inside int.
	MaxPage         = math.MaxInt / MaxPerPage
	DefaultCopies   = 1
	DefaultIsActive = true
)

type Author struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Genre struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Book struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Authors         []Author  `json:"authors" db:"-"`
	Genres          []Genre   `json:"genres" db:"-"`
	PublicationYear int       `json:"publication_year" db:"publication_year"`
	ISBN            *string   `json:"isbn" db:"isbn"`
	CopiesAvailable int       `json:"copies_available" db:"copies_available"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type CreateBookRequest struct {
	Title           string   `json:"title" validate:"required"`
	Authors         []string `json:"authors" validate:"required,dive,required"`
	Genres          []string `json:"genres" validate:"dive,required"`
	PublicationYear *int     `json:"publication_year" validate:"required"`
	ISBN            *string  `json:"isbn"`
	CopiesAvailable *int     `json:"copies_available" validate:"omitempty,gte=0"`
	IsActive        *bool    `json:"is_active"`
}

// UpdateBookRequest carries only the fields the caller supplied; nil means "leave as is".
// An empty, non-nil Authors or Genres clears the list.
type UpdateBookRequest struct {
	Title           *string   `json:"title"`
	Authors         *[]string `json:"authors" validate:"omitempty,dive,required"`
	Genres          *[]string `json:"genres" validate:"omitempty,dive,required"`
	PublicationYear *int      `json:"publication_year"`
	ISBN            *string   `json:"isbn"`
	CopiesAvailable *int      `json:"copies_available" validate:"omitempty,gte=0"`
	IsActive        *bool     `json:"is_active"`
}

func (r UpdateBookRequest) Empty() bool {
	return r.Title == nil && r.Authors == nil && r.Genres == nil && r.PublicationYear == nil &&
		r.ISBN == nil && r.CopiesAvailable == nil && r.IsActive == nil
}

type NewBook struct {
	Title           string
	Authors         []string
	Genres          []string
	PublicationYear int
	ISBN            *string
	CopiesAvailable int
	IsActive        bool
}

type ListParams struct {
	Page    int `validate:"gte=0"`
	PerPage int `validate:"gte=0"`
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

type SortField string

const (
	SortByTitle  SortField = "title"
	SortByAuthor SortField = "author"
	SortByYear   SortField = "year"
)

// ParseSortField never fails: unknown values sort by title.
func ParseSortField(s string) SortField {
	switch f := SortField(s); f {
	case SortByTitle, SortByAuthor, SortByYear:
		return f
	default:
		return SortByTitle
	}
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type SearchParams struct {
	Title         string
	Author        string
	Genre         string
	YearFrom      *int
	YearTo        *int
	ISBN          string
	AvailableOnly bool
	SortBy        SortField
	SortOrder     SortOrder `validate:"omitempty,oneof=asc desc"`
	ListParams
}

type SearchResult struct {
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Results []Book `json:"results"`
}

type StatEntry struct {
	Name  string `db:"name"`
	Count int    `db:"count"`
}

// Stats keeps the store's ordering and marshals to a JSON object name -> count.
type Stats []StatEntry

func (s Stats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		count, err := json.Marshal(e.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type StatsSummary struct {
	Genres  Stats `json:"genres"`
	Authors Stats `json:"authors"`
}
