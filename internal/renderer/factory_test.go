package renderer

import (
	"strings"
	"testing"
)

func TestNewBackendFromConfig_Text(t *testing.T) {
	b, err := NewBackendFromConfig(BackendTypeText, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := b.(*TextBackend); !ok {
		t.Errorf("expected TextBackend, got %T", b)
	}
	if b.Name() != "text" {
		t.Errorf("expected name 'text', got %q", b.Name())
	}
}

func TestNewBackendFromConfig_RodIsDefault(t *testing.T) {
	for _, kind := range []string{BackendTypeRod, ""} {
		b, err := NewBackendFromConfig(kind, Options{})
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", kind, err)
		}
		rb, ok := b.(*RodBackend)
		if !ok {
			t.Fatalf("expected RodBackend for %q, got %T", kind, b)
		}
		// No browser is launched until the first render.
		if rb.browser != nil {
			t.Error("expected lazy browser start")
		}
	}
}

func TestNewBackendFromConfig_Unknown(t *testing.T) {
	_, err := NewBackendFromConfig("svgkit", Options{})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "unknown render backend") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}
	o.defaults()

	if o.Width != 3000 || o.Height != 2000 {
		t.Errorf("expected 3000x2000, got %dx%d", o.Width, o.Height)
	}
	if o.PageLoadTimeout.Seconds() != 30 || o.ContentReadyTimeout.Seconds() != 15 || o.LayoutTimeout.Seconds() != 10 {
		t.Errorf("unexpected timeouts: %v %v %v", o.PageLoadTimeout, o.ContentReadyTimeout, o.LayoutTimeout)
	}
	if o.Theme != "dark" || o.Background != "#1a1a1a" {
		t.Errorf("unexpected theme/background: %q %q", o.Theme, o.Background)
	}
	if !strings.Contains(o.MermaidURL, "mermaid") {
		t.Errorf("unexpected mermaid url %q", o.MermaidURL)
	}
}
