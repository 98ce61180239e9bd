package utils

// PaginationParams holds limit/offset request parameters
type PaginationParams struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// GetPaginationParams normalizes limit and offset with defaults
func GetPaginationParams(limit, offset int) PaginationParams {
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return PaginationParams{Limit: limit, Offset: offset}
}
