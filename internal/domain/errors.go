package domain

import "errors"

var (
	// ErrDataUnavailable is returned when the product index has not been built
	// or the catalog source failed to load. Distinct from a no-match result so
	// callers never report "product not found" for a data outage.
	ErrDataUnavailable = errors.New("product data unavailable")

	// ErrProductNotFound is returned when a specific model number is not in the catalog
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrGenerationFailure is returned when the text-generation API request fails
	ErrGenerationFailure = errors.New("text generation request failed")
)
