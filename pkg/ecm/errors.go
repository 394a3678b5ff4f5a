package ecm

import (
	"errors"
	"fmt"
)

var (
	// ErrOutsideDomain is returned for coordinates that do not address a
	// point of the unfolded cube.
	ErrOutsideDomain = errors.New("ecm: coordinate outside domain")

	// ErrNumericalDomain is wrapped by every DomainError.
	ErrNumericalDomain = errors.New("ecm: numerical domain violation")

	// ErrInvalidEllipsoid is returned by New for unusable semi-axes.
	ErrInvalidEllipsoid = errors.New("ecm: invalid ellipsoid")
)

// DomainError reports an intermediate value of a projection that left its
// mathematically valid range. It should not happen for valid input; callers
// decide whether it is fatal.
type DomainError struct {
	Op    string  // function that detected the violation
	Name  string  // name of the intermediate quantity
	Value float64 // offending value
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("ecm: %s: %s = %g out of range", e.Op, e.Name, e.Value)
}

// Unwrap lets errors.Is match ErrNumericalDomain.
func (e *DomainError) Unwrap() error {
	return ErrNumericalDomain
}
