package types

import (
	"fmt"

	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq        CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq     CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt        CommonFilterOperator = "lt"
	CommonFilterOperatorLte       CommonFilterOperator = "lte"
	CommonFilterOperatorGt        CommonFilterOperator = "gt"
	CommonFilterOperatorGte       CommonFilterOperator = "gte"
	CommonFilterOperatorDateRange CommonFilterOperator = "date_range"
	CommonFilterOperatorRange     CommonFilterOperator = "range"
	CommonFilterOperatorIn        CommonFilterOperator = "in"
)

var commonFilterOperators = map[CommonFilterOperator]int{
	CommonFilterOperatorEq:        1,
	CommonFilterOperatorNotEq:     1,
	CommonFilterOperatorLt:        1,
	CommonFilterOperatorLte:       1,
	CommonFilterOperatorGt:        1,
	CommonFilterOperatorGte:       1,
	CommonFilterOperatorDateRange: 2,
	CommonFilterOperatorRange:     2,
	CommonFilterOperatorIn:        1,
}

// CommonFilter is a single `field <op> values` condition sent by list APIs.
// Field holds the API field name until Resolve maps it to a column.
type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`

	column string
}

// Resolve validates the filter against a whitelist of API field -> column
// mappings. Only resolved filters produce SQL.
func (f *CommonFilter) Resolve(columns map[string]string) error {
	col, ok := columns[f.Field]
	if !ok {
		return fmt.Errorf("unsupported filter field: %s", f.Field)
	}
	need, ok := commonFilterOperators[f.Operator]
	if !ok {
		return fmt.Errorf("unsupported filter operator: %s", f.Operator)
	}
	if len(f.Values) < need {
		return fmt.Errorf("filter %s %s needs %d value(s)", f.Field, f.Operator, need)
	}
	f.column = col
	return nil
}

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if f.column == "" || len(f.Values) == 0 {
		builder.WriteString("1=1")
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: f.column, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: f.column, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: f.column, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: f.column, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: f.column, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: f.column, Value: value}.Build(builder)
	case CommonFilterOperatorRange, CommonFilterOperatorDateRange:
		clause.And(clause.Gte{Column: f.column, Value: f.Values[0]}, clause.Lte{Column: f.column, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: f.column, Values: f.Values}.Build(builder)
	default:
		builder.WriteString("1=1")
	}
}

// FiltersAnd combines resolved filters into a single clause.Expression.
type FiltersAnd []*CommonFilter

func (w FiltersAnd) Build(builder clause.Builder) {
	if len(w) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w))
	for _, f := range w {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}
