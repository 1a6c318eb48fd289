package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/hookq/pkg/domain"
)

// Evaluate folds a subscription's ordered condition list over the event data
// in a single left-to-right pass. No precedence, no grouping: a AND b OR c
// evaluates as (a AND b) OR c. The first condition's combinator is ignored
// and an empty list always matches.
func Evaluate(conds []domain.Condition, data map[string]any) bool {
	if len(conds) == 0 {
		return true
	}
	result := evalCondition(conds[0], data)
	for _, cond := range conds[1:] {
		if cond.Logic.IsOr() {
			result = result || evalCondition(cond, data)
		} else {
			result = result && evalCondition(cond, data)
		}
	}
	return result
}

func evalCondition(cond domain.Condition, data map[string]any) bool {
	fieldVal := lookup(data, cond.Field)

	switch cond.Operator {
	case domain.OpEquals:
		return stringify(fieldVal) == stringify(cond.Value)
	case domain.OpNotEquals:
		return stringify(fieldVal) != stringify(cond.Value)
	case domain.OpContains:
		return strings.Contains(
			strings.ToLower(stringify(fieldVal)),
			strings.ToLower(stringify(cond.Value)),
		)
	case domain.OpGreaterThan:
		f, okF := toFloat(fieldVal)
		v, okV := toFloat(cond.Value)
		return okF && okV && f > v
	case domain.OpLessThan:
		f, okF := toFloat(fieldVal)
		v, okV := toFloat(cond.Value)
		return okF && okV && f < v
	case domain.OpIn:
		return inSet(fieldVal, cond.Value)
	}
	return false
}

// lookup walks a dot-separated path through nested maps. A missing segment
// or a non-map intermediate yields nil, which the operators coerce like an
// absent value.
func lookup(data map[string]any, path string) any {
	if data == nil || path == "" {
		return nil
	}
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

// stringify is the single coercion path shared by equals, not_equals,
// contains and in. nil becomes the empty string; numbers render without an
// exponent so "5" equals 5.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// toFloat parses the numeric value for ordering comparisons. A value that
// does not parse reports false, which makes greater_than and less_than both
// evaluate false for it.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// inSet treats a non-list target as a one-element set.
func inSet(fieldVal, target any) bool {
	needle := stringify(fieldVal)
	switch t := target.(type) {
	case []any:
		for _, item := range t {
			if stringify(item) == needle {
				return true
			}
		}
		return false
	case []string:
		for _, item := range t {
			if item == needle {
				return true
			}
		}
		return false
	default:
		return stringify(t) == needle
	}
}
