package domain

import "github.com/pkg/errors"

// Trade rejection reasons. A rejected trade never touches account state.
var (
	ErrInvalidRequest       = errors.New("invalid trade request")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)
