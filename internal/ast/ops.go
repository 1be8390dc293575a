package ast

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpRange
	OpOr
	OpAnd
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
)

var binaryOpSymbols = [...]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpPow:          "**",
	OpRange:        "..",
	OpOr:           "||",
	OpAnd:          "&&",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
}

var binaryOpNames = [...]string{
	OpAdd:          "Add",
	OpSub:          "Sub",
	OpMul:          "Mul",
	OpDiv:          "Div",
	OpPow:          "Pow",
	OpRange:        "Range",
	OpOr:           "Or",
	OpAnd:          "And",
	OpEqual:        "Equal",
	OpNotEqual:     "NotEqual",
	OpLess:         "Less",
	OpLessEqual:    "LessEqual",
	OpGreater:      "Greater",
	OpGreaterEqual: "GreaterEqual",
}

// String returns the operator's source symbol.
func (op BinaryOp) String() string { return binaryOpSymbols[op] }

// Name returns the operator's variant name, used in JSON output.
func (op BinaryOp) Name() string { return binaryOpNames[op] }

// IsArithmetic reports whether op is one of + - * / **.
func (op BinaryOp) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpPow:
		return true
	}
	return false
}

// IsComparison reports whether op compares its operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return true
	}
	return false
}

// IsLogical reports whether op is && or ||.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// UnaryOp enumerates prefix operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
)

// String returns the operator's source symbol.
func (op UnaryOp) String() string {
	if op == OpNot {
		return "!"
	}
	return "-"
}

// Name returns the operator's variant name, used in JSON output.
func (op UnaryOp) Name() string {
	if op == OpNot {
		return "Not"
	}
	return "Neg"
}
