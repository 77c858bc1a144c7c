package model

// Page is one page of employees ordered by ID.
type Page struct {
	Content       []Employee `json:"content" yaml:"content"`
	Page          int        `json:"page" yaml:"page"`
	PageSize      int        `json:"pageSize" yaml:"page_size"`
	TotalElements int64      `json:"totalElements" yaml:"total_elements"`
	TotalPages    int        `json:"totalPages" yaml:"total_pages"`
}

// TotalPages returns ceil(total / pageSize), or 0 when there is nothing to page.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}
