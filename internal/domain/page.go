package domain

// Page is a 1-based page request.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) Offset() int { return (p.Page - 1) * p.PageSize }

type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

func (p Page) Meta(total int) PageMeta {
	return PageMeta{Page: p.Page, PageSize: p.PageSize, Total: total}
}
