// services/store.go
package services

import "gorm.io/gorm"

// Filter is a single predicate of a ListQuery. Op is "eq" or "in".
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// ListQuery is the store-agnostic query spec for list reads: equality/in-list
// predicates, one sort field, limit/offset pagination. The postgres layer
// translates it into gorm chains; nothing above it touches the client library.
type ListQuery struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: "eq", Value: value}
}

func In(field string, values interface{}) Filter {
	return Filter{Field: field, Op: "in", Value: values}
}

func (q ListQuery) apply(db *gorm.DB) *gorm.DB {
	for _, f := range q.Filters {
		switch f.Op {
		case "in":
			db = db.Where(f.Field+" IN ?", f.Value)
		default:
			db = db.Where(f.Field+" = ?", f.Value)
		}
	}
	if q.OrderBy != "" {
		order := q.OrderBy
		if q.Desc {
			order += " DESC"
		}
		db = db.Order(order)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	return db
}
