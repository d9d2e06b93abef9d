package pipeline

import "strings"

// moduleErrors wraps errors that might occur when multiple modules are
// failing.
type moduleErrors []error

func (e moduleErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ", ")
}

// Unwrap allows to match any of errors.
func (e moduleErrors) Unwrap() []error {
	return e
}

// ret returns untyped nil if error is list is empty.
func (e moduleErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
