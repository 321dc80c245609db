package repositories

import "errors"

// ErrDuplicate is returned when an insert or update violates a unique
// constraint (email, username, role name). Services map it to a conflict.
var ErrDuplicate = errors.New("duplicate key")
