package strata

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items    []*T  `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	LastPage int   `json:"last_page"`
}

// lastPage computes the final page number for a total at the given page
// size. Always at least 1 so an empty set still has a valid page.
func lastPage(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	return last
}
