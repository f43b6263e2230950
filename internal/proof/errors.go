package proof

import "errors"

// ErrQueryNotFound is returned by ExecuteQuery for an unknown query id.
var ErrQueryNotFound = errors.New("query definition not found")
