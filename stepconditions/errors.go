package stepconditions

import "errors"

// ErrInvalidDividends is returned when dividend times and amounts do not
// pair up or a dividend is negative.
var ErrInvalidDividends = errors.New("stepconditions: invalid dividend schedule")
