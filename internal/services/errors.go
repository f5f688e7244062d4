// Package services defines the business logic for the product catalog and the
// farms that supply it. This file centralizes service-level error values so
// they are returned consistently by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Schema validation failures are not mapped here; they pass
// through unchanged as *domain.ValidationError.
package services

import "errors"

var (
	// ErrProductNotFound indicates that no product has the requested id.
	ErrProductNotFound = errors.New("product not found")

	// ErrFarmNotFound indicates that no farm has the requested id.
	ErrFarmNotFound = errors.New("farm not found")
)
