// Package errors provides custom error types for product-related operations.
package errors

import "errors"

// ErrProductNotExists is returned when an operation addressed by ID finds no product.
// The message is returned to HTTP clients unchanged.
var ErrProductNotExists = errors.New("Product not exists")
