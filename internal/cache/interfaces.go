package cache

import "github.com/bassista/go_graphview/internal/graph"

// ReadOnlyStore is the minimal cache API for query controllers and the notifier.
type ReadOnlyStore interface {
	Get() (graph.Artifact, bool)
}

// ArtifactStore is the cache API needed by the updater.
type ArtifactStore interface {
	ReadOnlyStore
	Replace(a graph.Artifact)
	Install(a graph.Artifact) (release func())
}

// AppStore is the cache contract the application container exposes.
type AppStore interface {
	ArtifactStore
	Clear()
}
