package session

import (
	"github.com/samber/lo"

	"github.com/ytget/yt-audio-bot/internal/model"
)

// DefaultPageSize is the number of results shown per page
const DefaultPageSize = 8

// Page is one computed slice of a result list
type Page struct {
	Number int // zero-based
	Count  int // total pages
	Offset int // index of the first item in the full list
	Items  []model.SearchResult
}

// HasPrev reports whether a previous page exists
func (p Page) HasPrev() bool {
	return p.Number > 0
}

// HasNext reports whether a next page exists
func (p Page) HasNext() bool {
	return p.Number < p.Count-1
}

// PageCount returns how many pages total items fill
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Paginate returns page number of results. Out of range numbers are
// clamped to the first or last page.
func Paginate(results []model.SearchResult, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	chunks := lo.Chunk(results, size)
	if len(chunks) == 0 {
		return Page{}
	}
	if number < 0 {
		number = 0
	}
	if number >= len(chunks) {
		number = len(chunks) - 1
	}
	return Page{
		Number: number,
		Count:  len(chunks),
		Offset: number * size,
		Items:  chunks[number],
	}
}
