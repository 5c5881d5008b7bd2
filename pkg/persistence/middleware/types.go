// Package middleware wraps transcript stores with behavior applied on the way
// in and out of persistence.
package middleware

import "github.com/aretw0/turnstile/pkg/ports"

// Middleware allows wrapping a TranscriptStore to add behavior.
type Middleware func(ports.TranscriptStore) ports.TranscriptStore

// Chain wraps store with the middlewares. The first one sees calls first.
func Chain(store ports.TranscriptStore, mws ...Middleware) ports.TranscriptStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
