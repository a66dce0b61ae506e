package renderer

import "fmt"

const (
	BackendTypeRod  = "rod"
	BackendTypeText = "text"
)

// NewBackendFromConfig creates a Backend based on the backend type.
// "rod" (default) drives headless Chromium; "text" draws the source as plain text.
func NewBackendFromConfig(backendType string, opts Options) (Backend, error) {
	switch backendType {
	case BackendTypeText:
		return NewTextBackend(opts), nil
	case BackendTypeRod, "":
		return NewRodBackend(opts), nil
	default:
		return nil, fmt.Errorf("unknown render backend: %s (supported: %s, %s)", backendType, BackendTypeRod, BackendTypeText)
	}
}
