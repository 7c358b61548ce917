package common

type SuccessResponse struct {
	Data any `json:"data"`
}

type Pagination struct {
	Total int64 `json:"total"`
}

type SearchResponse struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func NewSuccessResponse(data any) *SuccessResponse {
	return &SuccessResponse{Data: data}
}

func NewSearchResponse(data any, total int64) *SearchResponse {
	return &SearchResponse{Data: data, Pagination: Pagination{Total: total}}
}

// NewListResponse wraps a complete, unpaged result. A nil slice is sent as [].
func NewListResponse[T any](items []T) *SearchResponse {
	if items == nil {
		items = []T{}
	}
	return NewSearchResponse(items, int64(len(items)))
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Message: message}
}
