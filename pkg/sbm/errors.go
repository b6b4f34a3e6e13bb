package sbm

import (
	"errors"
	"fmt"
)

// ErrLogic marks misuse of the model API: unknown ids or types, setting a
// parent at a non-adjacent level, initializing more blocks than nodes of a
// type, or adding a disallowed edge.
var ErrLogic = errors.New("logic error")

// ErrRange marks references to a level that does not exist in the network.
var ErrRange = errors.New("range error")

func logicErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrLogic, fmt.Sprintf(format, args...))
}

func rangeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRange, fmt.Sprintf(format, args...))
}
