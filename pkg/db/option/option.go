// Package option holds composable gorm query modifiers used by the generic store.
package option

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ        Operator = "eq"
	GTE       Operator = "gte"
	LT        Operator = "lt"
	LTE       Operator = "lte"
	IsNotNull Operator = "not_null"
)

// Condition is a single column predicate. Field is a column name and is
// quoted by the dialect, so mixed-case legacy columns work on every driver.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		col := clause.Column{Name: cond.Field}
		switch cond.Operator {
		case GTE:
			return db.Where(clause.Gte{Column: col, Value: cond.Value})
		case LT:
			return db.Where(clause.Lt{Column: col, Value: cond.Value})
		case LTE:
			return db.Where(clause.Lte{Column: col, Value: cond.Value})
		case IsNotNull:
			return db.Where(clause.Expr{SQL: "? IS NOT NULL", Vars: []any{col}})
		default:
			return db.Where(clause.Eq{Column: col, Value: cond.Value})
		}
	})
}

type QuerySortBy struct {
	Field string
	Desc  bool
}

func WithSortBy(sorts ...QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		for _, s := range sorts {
			if s.Field == "" {
				continue
			}
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Field}, Desc: s.Desc})
		}
		return db
	})
}

// WithLimitOffset applies LIMIT offset,size semantics.
func WithLimitOffset(limit, offset int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	})
}

func WithSelect(columns ...string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if len(columns) == 0 {
			return db
		}
		return db.Select(columns)
	})
}
