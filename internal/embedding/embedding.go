// Package embedding turns issue text into vectors for the vector store.
package embedding

import "context"

// Embedder defines the interface for text embedding services.
type Embedder interface {
	// Embed converts a text string into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Closer is implemented by embedders that hold network clients.
type Closer interface {
	Close() error
}
