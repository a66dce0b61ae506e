package graph

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
)

func TestErrInvalidInput_IsInvalidArgument(t *testing.T) {
	assert.True(t, errdefs.IsInvalidArgument(ErrInvalidInput))
	assert.True(t, errdefs.IsInvalidArgument(fmt.Errorf("update: %w", ErrInvalidInput)))
	assert.False(t, errdefs.IsNotFound(ErrInvalidInput))
}

func TestErrNotFound_IsNotFound(t *testing.T) {
	assert.True(t, errdefs.IsNotFound(ErrNotFound))
}

func TestRenderError_UnwrapsCauseAndClass(t *testing.T) {
	cause := errors.New("Parse error on line 2")
	err := fmt.Errorf("update: %w", NewRenderError(cause))

	assert.True(t, IsRenderFailed(err))
	assert.True(t, errdefs.IsUnavailable(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Parse error on line 2", RenderDetails(err))
	assert.Contains(t, err.Error(), "render failed")
}

func TestRenderError_NilCause(t *testing.T) {
	err := NewRenderError(nil)
	assert.Equal(t, "unknown render failure", RenderDetails(err))
}

func TestRenderDetails_PlainError(t *testing.T) {
	assert.False(t, IsRenderFailed(errors.New("boom")))
	assert.Equal(t, "boom", RenderDetails(errors.New("boom")))
	assert.Equal(t, "", RenderDetails(nil))
}

func TestFormatTimestamp_UTCMillis(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 3, 1, 10, 20, 30, 456_000_000, loc)
	assert.Equal(t, "2024-03-01T09:20:30.456Z", FormatTimestamp(ts))
}

func TestArtifact_StateAndEvents(t *testing.T) {
	a := Artifact{Source: "graph TD; A-->B", Timestamp: "t1", Locator: Locator, Path: "/tmp/x.png"}

	s := a.State()
	assert.Equal(t, State{MermaidContent: "graph TD; A-->B", PngPath: "/api/graph-image", Timestamp: "t1"}, s)

	cur := CurrentGraph(a)
	assert.Equal(t, EventCurrentGraph, cur.Type)
	assert.Equal(t, s, *cur.Data)

	upd := GraphUpdated(a)
	assert.Equal(t, EventGraphUpdated, upd.Type)
	assert.Equal(t, s, *upd.Data)

	e := ErrorEvent("bad diagram")
	assert.Equal(t, EventError, e.Type)
	assert.Nil(t, e.Data)
	assert.Equal(t, "bad diagram", e.Message)
}
