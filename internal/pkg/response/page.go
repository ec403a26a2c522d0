package response

// Pagination is the metadata attached to every list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination computes the page count as ceil(total/limit).
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

// NonNil turns a nil slice into an empty one so lists encode as [].
func NonNil[T any](items []T) []T {
	if items == nil {
		return make([]T, 0)
	}
	return items
}
