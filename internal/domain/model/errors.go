package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest   = errors.New("invalid staking request")
	ErrUnsupportedChain = errors.New("unsupported chain")
)

// ServiceError is returned when the staking service answers with a non-success
// status.
type ServiceError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s API error: %s", e.Endpoint, e.Status)
}

// SigningError is returned when the signer could not produce a signature.
type SigningError struct {
	Chain Chain
	Err   error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing %s transaction: %v", e.Chain, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
