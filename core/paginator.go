package core

import "strconv"

// Page describes one page of a paginated listing.
type Page struct {
	Number   int
	PerPage  int
	Count    int
	NumPages int
}

// NewPage resolves the requested page number against count items.
// A missing or malformed number yields the first page, an out of range one the last page.
// There is always at least one page, even when count is 0.
func NewPage(count, perPage int, requested string) Page {
	if perPage < 1 {
		perPage = 1
	}
	numPages := (count + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}

	number, err := strconv.Atoi(requested)
	switch {
	case err != nil:
		number = 1
	case number < 1, number > numPages:
		number = numPages
	}
	return Page{Number: number, PerPage: perPage, Count: count, NumPages: numPages}
}

func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasOtherPages() bool {
	return p.HasPrevious() || p.HasNext()
}

func (p Page) PreviousNumber() int { return p.Number - 1 }
func (p Page) NextNumber() int     { return p.Number + 1 }
