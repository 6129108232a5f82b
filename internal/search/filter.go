package search

import (
	"fmt"
	"strings"
)

// Params are the browse-search parameters accepted by Search.
type Params struct {
	Query    string
	Category string
	MinPrice *float64
	MaxPrice *float64
	SortBy   string // price_asc, price_desc or newest
	Limit    int64
	Offset   int64
}

func (p Params) normalized() Params {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func (p Params) filter() string {
	var filters []string

	if p.Category != "" {
		filters = append(filters, fmt.Sprintf("category = %q", p.Category))
	}
	if p.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("price >= %g", *p.MinPrice))
	}
	if p.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("price <= %g", *p.MaxPrice))
	}

	return strings.Join(filters, " AND ")
}

func (p Params) sort() []string {
	switch p.SortBy {
	case "price_asc":
		return []string{"price:asc"}
	case "price_desc":
		return []string{"price:desc"}
	case "newest":
		return []string{"created_at:desc"}
	}
	return nil
}
