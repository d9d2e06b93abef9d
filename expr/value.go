package expr

import (
	"fmt"
	"strconv"
)

// Type identifies the kind of a Value.
type Type int

// Value types.
const (
	TypeNone Type = iota
	TypeBoolean
	TypeInteger
	TypeString
	TypeFunction
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeString:
		return "string"
	case TypeFunction:
		return "function"
	}
	return "unknown"
}

// Value is a result of evaluation. It's one of None, Boolean, Integer,
// String or *Function. The set is closed: other packages can't add new
// kinds of values.
type Value interface {
	Type() Type
	String() string
	value()
}

type (
	// None is the absence of value.
	None struct{}
	// Boolean is #t or #f.
	Boolean bool
	// Integer value.
	Integer int
	// String value.
	String string
	// Function is a reference to a builtin. Functions are compared by
	// identity.
	Function struct {
		Name string
		fn   Builtin
	}
)

// Builtin is a native function. It receives the whole evaluated list,
// args[0] is the function itself.
type Builtin func(args []Value) (Value, error)

func (None) Type() Type      { return TypeNone }
func (Boolean) Type() Type   { return TypeBoolean }
func (Integer) Type() Type   { return TypeInteger }
func (String) Type() Type    { return TypeString }
func (*Function) Type() Type { return TypeFunction }

func (None) value()      {}
func (Boolean) value()   {}
func (Integer) value()   {}
func (String) value()    {}
func (*Function) value() {}

func (None) String() string { return "none" }

func (b Boolean) String() string {
	if b {
		return "#t"
	}
	return "#f"
}

func (i Integer) String() string { return strconv.Itoa(int(i)) }

func (s String) String() string { return strconv.Quote(string(s)) }

func (f *Function) String() string { return fmt.Sprintf("<builtin %s>", f.Name) }

// Equal returns true if both values have the same type and payload.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case None:
		return true
	case Boolean:
		return av == b.(Boolean)
	case Integer:
		return av == b.(Integer)
	case String:
		return av == b.(String)
	case *Function:
		return av == b.(*Function)
	}
	return false
}

// isFalse reports if v is exactly boolean #f.
func isFalse(v Value) bool {
	b, ok := v.(Boolean)
	return ok && !bool(b)
}
