package graph

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	// ErrInvalidInput is returned when the diagram source is missing or blank.
	ErrInvalidInput = fmt.Errorf("mermaid_content is required: %w", errdefs.ErrInvalidArgument)

	// ErrNotFound is returned when no artifact is available.
	ErrNotFound = fmt.Errorf("graph image not found: %w", errdefs.ErrNotFound)
)

// RenderError reports a failed render attempt. Cause carries the backend diagnostic.
type RenderError struct {
	Cause error
}

// NewRenderError wraps cause as a RenderError.
func NewRenderError(cause error) *RenderError {
	if cause == nil {
		cause = errors.New("unknown render failure")
	}
	return &RenderError{Cause: cause}
}

func (e *RenderError) Error() string {
	return "render failed: " + e.Cause.Error()
}

func (e *RenderError) Unwrap() []error {
	return []error{errdefs.ErrUnavailable, e.Cause}
}

// IsRenderFailed reports whether err is, or wraps, a RenderError.
func IsRenderFailed(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}

// RenderDetails returns the backend diagnostic carried by err, or err's message.
func RenderDetails(err error) string {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Cause.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
