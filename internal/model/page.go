package model

// Page is one window of a listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ListParams selects a window of a listing. OrderBy is a public field name;
// each listing maps it to a column and rejects unknown ones.
type ListParams struct {
	Limit   int
	Offset  int
	OrderBy string
	Desc    bool
	Query   string
}
