// internal/models/errors.go
package models

import "errors"

// ErrNotFound is returned by stores when a record addressed by id does not exist
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique key is already taken
var ErrDuplicate = errors.New("duplicate record")
