// Package kit holds the endpoint abstraction shared by every transport:
// a tool invocation is an Endpoint, middlewares wrap it, and transport
// adapters (MCP, tests) decode their wire format into the request the
// endpoint expects.
package kit

import "context"

// Endpoint is one callable operation: typed request in, response out.
type Endpoint func(ctx context.Context, request any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour (audit,
// logging, policy).
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is outermost.
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(others) - 1; i >= 0; i-- {
			next = others[i](next)
		}
		return outer(next)
	}
}
