package filter

import "strings"

// Operator is a lookup applied to the last field of a filter path.
// OpNone means equality.
type Operator string

const (
	OpNone        Operator = ""
	OpIn          Operator = "in"
	OpAny         Operator = "any"
	OpAll         Operator = "all"
	OpIContains   Operator = "icontains"
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "startswith"
	OpIStartsWith Operator = "istartswith"
	OpEndsWith    Operator = "endswith"
	OpIEndsWith   Operator = "iendswith"
	OpYear        Operator = "year"
	OpMonth       Operator = "month"
	OpDay         Operator = "day"
	OpWeekDay     Operator = "week_day"
	OpRegex       Operator = "regex"
	OpRange       Operator = "range"
	OpGt          Operator = "gt"
	OpLt          Operator = "lt"
	OpGte         Operator = "gte"
	OpLte         Operator = "lte"
	OpIsNull      Operator = "isnull"
	OpEq          Operator = "eq"
	OpIExact      Operator = "iexact"
	OpOverlap     Operator = "overlap"
)

var validOperators = map[Operator]bool{
	OpIn:          true,
	OpAny:         true,
	OpAll:         true,
	OpIContains:   true,
	OpContains:    true,
	OpStartsWith:  true,
	OpIStartsWith: true,
	OpEndsWith:    true,
	OpIEndsWith:   true,
	OpYear:        true,
	OpMonth:       true,
	OpDay:         true,
	OpWeekDay:     true,
	OpRegex:       true,
	OpRange:       true,
	OpGt:          true,
	OpLt:          true,
	OpGte:         true,
	OpLte:         true,
	OpIsNull:      true,
	OpEq:          true,
	OpIExact:      true,
	OpOverlap:     true,
}

// IsOperator reports whether s is a whitelisted operator
func IsOperator(s string) bool {
	return validOperators[Operator(s)]
}

// Operators returns the whitelist in declaration order
func Operators() []Operator {
	return []Operator{
		OpIn, OpAny, OpAll, OpIContains, OpContains, OpStartsWith,
		OpIStartsWith, OpEndsWith, OpIEndsWith, OpYear, OpMonth, OpDay,
		OpWeekDay, OpRegex, OpRange, OpGt, OpLt, OpGte, OpLte, OpIsNull,
		OpEq, OpIExact, OpOverlap,
	}
}

// SplitOperator pops a trailing operator off segments. A single segment is
// always a field, even when it is spelled like an operator.
func SplitOperator(segments []string) ([]string, Operator) {
	if len(segments) > 1 && IsOperator(segments[len(segments)-1]) {
		return segments[:len(segments)-1], Operator(segments[len(segments)-1])
	}
	return segments, OpNone
}

var (
	truthy = map[string]bool{"true": true, "t": true, "1": true, "yes": true, "y": true, "on": true}
	falsy  = map[string]bool{"false": true, "f": true, "0": true, "no": true, "n": true, "off": true}
)

// ParseBool coerces an isnull argument. Only the recognized spellings are
// accepted so a typo can never invert a filter.
func ParseBool(s string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case truthy[v]:
		return true, nil
	case falsy[v]:
		return false, nil
	default:
		return false, newError(ErrInvalidValue, "Invalid boolean filter value: %q", s)
	}
}

// Normalize validates the values of a filter against op and returns the
// operator to store together with the normalized value:
//
//	range      exactly two values, kept as []string
//	in         one or more values, kept as []string
//	isnull     exactly one value, coerced to bool
//	eq         collapsed to OpNone
//	otherwise  exactly one value, kept as string
func Normalize(op Operator, values []string) (Operator, interface{}, error) {
	if op != OpNone && !IsOperator(string(op)) {
		return op, nil, newError(ErrMalformedKey, "Invalid filter operator: %s", op)
	}

	switch op {
	case OpRange:
		if len(values) != 2 {
			return op, nil, newError(ErrInvalidArity, "Operator %q requires exactly 2 values, got %d", op, len(values))
		}
		return op, copyValues(values), nil
	case OpIn:
		if len(values) == 0 {
			return op, nil, newError(ErrInvalidArity, "Operator %q requires at least 1 value", op)
		}
		return op, copyValues(values), nil
	}

	if len(values) != 1 {
		return op, nil, newError(ErrInvalidArity, "Filter requires exactly 1 value, got %d", len(values))
	}
	value := values[0]

	switch op {
	case OpIsNull:
		b, err := ParseBool(value)
		if err != nil {
			return op, nil, err
		}
		return op, b, nil
	case OpEq:
		return OpNone, value, nil
	default:
		return op, value, nil
	}
}

func copyValues(values []string) []string {
	copied := make([]string, len(values))
	copy(copied, values)
	return copied
}
