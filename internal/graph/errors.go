package graph

import (
	"errors"
	"fmt"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// ErrorCode categorizes graph errors.
type ErrorCode string

const (
	// ErrCodeNodeNotFound indicates a referenced node is not in the graph.
	ErrCodeNodeNotFound ErrorCode = "NODE_NOT_FOUND"

	// ErrCodeEdgeNotFound indicates a referenced edge is not in the graph.
	ErrCodeEdgeNotFound ErrorCode = "EDGE_NOT_FOUND"

	// ErrCodeCycleDetected indicates a cycle where the caller required a DAG.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// ErrCodeInvalidPath indicates no usable path exists between endpoints.
	ErrCodeInvalidPath ErrorCode = "INVALID_PATH"
)

// Error is a structured graph error.
type Error struct {
	Code    ErrorCode
	ID      capability.ID // the node involved, if any
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (capability=%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNodeNotFound reports whether err is a NODE_NOT_FOUND graph error.
// Uses errors.As to handle wrapped errors.
func IsNodeNotFound(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Code == ErrCodeNodeNotFound
}

// IsCycleDetected reports whether err is a CYCLE_DETECTED graph error.
func IsCycleDetected(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Code == ErrCodeCycleDetected
}

// IsInvalidPath reports whether err is an INVALID_PATH graph error.
func IsInvalidPath(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Code == ErrCodeInvalidPath
}
