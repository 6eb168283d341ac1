package contract

import "errors"

var (
	ErrCustomerUnresolved    = errors.New("customer identity not resolved")
	ErrReferenceUnresolvable = errors.New("reference cannot be resolved from context")
	ErrExternalTool          = errors.New("external tool call failed")
	ErrClassification        = errors.New("classification failed")
	ErrClassificationTimeout = errors.New("classification timed out")
	ErrReferential           = errors.New("write rejected: unknown customer")
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
)
