package dto

import "eventhire_backend/internal/repositories"

type PaginationQuery struct {
	Page     int `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" json:"page_size" validate:"omitempty,min=1,max=100"`
}

func (q PaginationQuery) ToPage() repositories.Page {
	return repositories.Page{Page: q.Page, PageSize: q.PageSize}
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	HasMore    bool        `json:"has_more"`
}

func NewPaginatedResponse(data interface{}, total int64, page repositories.Page) *PaginatedResponse {
	size := page.Limit()
	totalPages := int((total + int64(size) - 1) / int64(size))
	current := page.Offset()/size + 1
	return &PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       current,
		PageSize:   size,
		TotalPages: totalPages,
		HasMore:    current < totalPages,
	}
}

type SuccessResponse struct {
	Message string `json:"message"`
}
