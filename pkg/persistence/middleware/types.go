package middleware

import "github.com/aretw0/tessera/pkg/ports"

// Middleware allows wrapping a SchemaStore to add behavior.
type Middleware func(ports.SchemaStore) ports.SchemaStore

// Chain wraps store with mws. The first middleware is the outermost,
// so it sees every call before the ones after it.
func Chain(store ports.SchemaStore, mws ...Middleware) ports.SchemaStore {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			store = mws[i](store)
		}
	}
	return store
}
