package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/conduit-lang/drest/internal/schema"
)

// LookupSeparator joins storage path segments and the operator
const LookupSeparator = "__"

// Node is one resolved filter condition. Nodes are immutable.
type Node struct {
	path     []string
	operator Operator
	value    interface{}
	field    *schema.Field
	key      string
}

// NewNode creates a node for an internal path. value must already be
// normalized for operator.
func NewNode(path []string, operator Operator, value interface{}, field *schema.Field) (*Node, error) {
	if len(path) == 0 {
		return nil, newError(ErrMalformedKey, "Invalid filter key: empty field path")
	}
	if operator != OpNone && !IsOperator(string(operator)) {
		return nil, newError(ErrMalformedKey, "Invalid filter operator: %s", operator)
	}
	if err := checkArity(operator, value); err != nil {
		return nil, err
	}

	copied := make([]string, len(path))
	copy(copied, path)
	if list, ok := value.([]string); ok {
		value = copyValues(list)
	}

	key := strings.Join(copied, LookupSeparator)
	if operator != OpNone {
		key += LookupSeparator + string(operator)
	}

	return &Node{
		path:     copied,
		operator: operator,
		value:    value,
		field:    field,
		key:      key,
	}, nil
}

func checkArity(operator Operator, value interface{}) error {
	list, isList := value.([]string)
	switch operator {
	case OpRange:
		if !isList || len(list) != 2 {
			return newError(ErrInvalidArity, "Operator %q requires exactly 2 values", operator)
		}
	case OpIn:
		if !isList || len(list) == 0 {
			return newError(ErrInvalidArity, "Operator %q requires at least 1 value", operator)
		}
	default:
		if isList {
			return newError(ErrInvalidArity, "Filter requires exactly 1 value, got %d", len(list))
		}
	}
	return nil
}

// Path returns the internal path segments
func (n *Node) Path() []string {
	path := make([]string, len(n.path))
	copy(path, n.path)
	return path
}

// Operator returns the operator, OpNone for equality
func (n *Node) Operator() Operator {
	return n.operator
}

// Value returns the normalized value: a string, a bool for isnull, or a
// []string for in and range
func (n *Node) Value() interface{} {
	if list, ok := n.value.([]string); ok {
		return copyValues(list)
	}
	return n.value
}

// Field returns the terminal schema field, nil for the primary key alias
func (n *Node) Field() *schema.Field {
	return n.field
}

// Key returns the canonical key: the storage path and operator joined by
// LookupSeparator
func (n *Node) Key() string {
	return n.key
}

func (n *Node) String() string {
	return fmt.Sprintf("%s=%v", n.key, n.value)
}

// MarshalJSON encodes the node as {"path": [...], "operator": ..., "value": ...}
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path     []string    `json:"path"`
		Operator string      `json:"operator,omitempty"`
		Value    interface{} `json:"value"`
	}{
		Path:     n.path,
		Operator: string(n.operator),
		Value:    n.value,
	})
}
