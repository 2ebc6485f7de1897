package domain

import (
	"errors"
	"fmt"
)

// BusinessError marks an expected domain-level failure (out of stock,
// payment declined). It produces a FAILED order record instead of a retry;
// anything that is not a BusinessError is infrastructural and propagates to
// the queue consumer's ack decision.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

func NewInsufficientInventoryError(productID string) error {
	return &BusinessError{Message: fmt.Sprintf("product %s out of stock", productID)}
}

func NewPaymentFailedError(customerID string) error {
	return &BusinessError{Message: fmt.Sprintf("payment failed for customer %s", customerID)}
}

func IsBusinessError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}
