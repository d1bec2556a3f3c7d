package cart

import "fmt"

// Operation is one of the cart actions exposed under /api/cart/:op.
type Operation int

const (
	OpCreate Operation = iota + 1
	OpCheck
	OpFetch
	OpAdd
	OpUpdate
	OpRemove
	OpUpdateDiscounts
)

var operationNames = map[Operation]string{
	OpCreate:          "create",
	OpCheck:           "check",
	OpFetch:           "fetch",
	OpAdd:             "add",
	OpUpdate:          "update",
	OpRemove:          "remove",
	OpUpdateDiscounts: "updateDiscounts",
}

var operationsByName = func() map[string]Operation {
	out := make(map[string]Operation, len(operationNames))
	for op, name := range operationNames {
		out[name] = op
	}
	return out
}()

// ParseOperation maps a route segment to an Operation. Matching is exact.
func ParseOperation(name string) (Operation, bool) {
	op, ok := operationsByName[name]
	return op, ok
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}
