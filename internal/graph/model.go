package graph

import "time"

// Locator is the stable path other components use to fetch the current image.
const Locator = "/api/graph-image"

// TimestampLayout matches the ISO-8601 form browsers produce with Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Event types pushed to subscribers.
const (
	EventCurrentGraph = "current_graph"
	EventGraphUpdated = "graph_updated"
	EventError        = "error"
)

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// UpdateRequest is the payload accepted by the update endpoint.
type UpdateRequest struct {
	Content   string `json:"mermaid_content" validate:"required"`
	FilePath  string `json:"file_path"`
	Timestamp string `json:"timestamp"`
}

// Artifact is a successfully rendered diagram.
type Artifact struct {
	Source    string
	Timestamp string    // echoed producer timestamp, or render time
	CreatedAt time.Time // time of the successful render
	Path      string    // backing PNG on disk
	Locator   string
	FilePath  string
}

// State is the wire form of an artifact.
type State struct {
	MermaidContent string `json:"mermaidContent"`
	PngPath        string `json:"pngPath"`
	Timestamp      string `json:"timestamp"`
}

// State returns the wire form of the artifact.
func (a Artifact) State() State {
	return State{
		MermaidContent: a.Source,
		PngPath:        a.Locator,
		Timestamp:      a.Timestamp,
	}
}

// Event is a message delivered to live subscribers.
type Event struct {
	Type    string `json:"type"`
	Data    *State `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// CurrentGraph builds the connect-time event for a.
func CurrentGraph(a Artifact) Event {
	s := a.State()
	return Event{Type: EventCurrentGraph, Data: &s}
}

// GraphUpdated builds the broadcast event for a freshly installed artifact.
func GraphUpdated(a Artifact) Event {
	s := a.State()
	return Event{Type: EventGraphUpdated, Data: &s}
}

// ErrorEvent builds an error notification.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}
