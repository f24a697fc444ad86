package models

// PaginationInfo représente les informations de pagination
// @Description Informations de pagination pour les listes
type PaginationInfo struct {
	Page         int  `json:"page" example:"1"`
	PageSize     int  `json:"page_size" example:"25"`
	TotalPages   int  `json:"total_pages" example:"4"`
	TotalItems   int  `json:"total_items" example:"95"`
	HasNext      bool `json:"has_next" example:"true"`
	HasPrevious  bool `json:"has_previous" example:"false"`
	NextPage     int  `json:"next_page,omitempty" example:"2"`
	PreviousPage int  `json:"previous_page,omitempty"`
} // @name PaginationInfo

// NewPaginationInfo calcule la pagination à partir d'un limit/offset
func NewPaginationInfo(limit, offset int, total int64) PaginationInfo {
	if limit <= 0 {
		return PaginationInfo{Page: 1, TotalPages: 1, TotalItems: int(total)}
	}

	page := offset/limit + 1
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages == 0 {
		totalPages = 1
	}

	info := PaginationInfo{
		Page:        page,
		PageSize:    limit,
		TotalPages:  totalPages,
		TotalItems:  int(total),
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
	if info.HasNext {
		info.NextPage = page + 1
	}
	if info.HasPrevious {
		info.PreviousPage = page - 1
	}

	return info
}
