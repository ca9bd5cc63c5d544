package domain

import "errors"

// ErrNotFound indicates the referenced id is absent from the targeted
// collection.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a payload violated a field constraint, such as a
// task created without a title.
var ErrValidation = errors.New("validation failed")
