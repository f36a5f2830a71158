package term

import "fmt"

// Op identifies the operator (or leaf kind) of a node.
type Op int

const (
	OpSymbol  Op = iota // propositional variable, e.g. p
	OpConst             // true or false
	OpNot               // (~ x)
	OpAnd               // (* x y)
	OpOr                // (+ x y)
	OpImplies           // (=> x y)
	OpIff               // (<=> x y)
	numOps
)

var opTokens = [...]string{
	OpSymbol:  "sym",
	OpConst:   "const",
	OpNot:     "~",
	OpAnd:     "*",
	OpOr:      "+",
	OpImplies: "=>",
	OpIff:     "<=>",
}

var opArity = [...]int{
	OpSymbol:  0,
	OpConst:   0,
	OpNot:     1,
	OpAnd:     2,
	OpOr:      2,
	OpImplies: 2,
	OpIff:     2,
}

// String returns the operator token used in s-expressions.
func (op Op) String() string {
	if op >= 0 && op < numOps {
		return opTokens[op]
	}
	return fmt.Sprintf("Op<%d>", int(op))
}

// Arity returns the number of children a node with this operator has.
func (op Op) Arity() int {
	if op >= 0 && op < numOps {
		return opArity[op]
	}
	return -1
}

// IsLeaf reports whether nodes with this operator carry no children.
func (op Op) IsLeaf() bool {
	return op == OpSymbol || op == OpConst
}

// Valid reports whether op is part of the vocabulary.
func (op Op) Valid() bool {
	return op >= 0 && op < numOps
}

// LookupOp maps an s-expression head token to its operator.
// Leaf kinds are never returned since they have no head token.
func LookupOp(token string) (Op, bool) {
	for op := OpNot; op < numOps; op++ {
		if opTokens[op] == token {
			return op, true
		}
	}
	return 0, false
}

// Ops returns every operator in the vocabulary.
func Ops() []Op {
	ops := make([]Op, 0, numOps)
	for op := Op(0); op < numOps; op++ {
		ops = append(ops, op)
	}
	return ops
}
