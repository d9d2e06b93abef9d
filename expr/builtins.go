package expr

import "fmt"

var (
	notFunction   = &Function{Name: "not", fn: not}
	andFunction   = &Function{Name: "and", fn: and}
	orFunction    = &Function{Name: "or", fn: or}
	equalFunction = &Function{Name: "equal?", fn: equal}

	builtins = []*Function{notFunction, andFunction, orFunction, equalFunction}
)

// not is #t only if the single operand is #f.
func not(args []Value) (Value, error) {
	if len(args) != 2 {
		return None{}, fmt.Errorf("%w: not takes exactly one operand, got %d", ErrEval, len(args)-1)
	}
	return Boolean(isFalse(args[1])), nil
}

// and returns #f on the first #f operand, otherwise the last operand.
func and(args []Value) (Value, error) {
	for _, v := range args[1:] {
		if isFalse(v) {
			return Boolean(false), nil
		}
	}
	if len(args) > 1 {
		return args[len(args)-1], nil
	}
	return Boolean(true), nil
}

// or returns the first operand which is not #f.
func or(args []Value) (Value, error) {
	for _, v := range args[1:] {
		if !isFalse(v) {
			return v, nil
		}
	}
	return Boolean(false), nil
}

// equal compares each pair of adjacent operands.
func equal(args []Value) (Value, error) {
	for i := 1; i < len(args)-1; i++ {
		if !Equal(args[i], args[i+1]) {
			return Boolean(false), nil
		}
	}
	return Boolean(true), nil
}
