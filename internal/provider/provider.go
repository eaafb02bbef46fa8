// Package provider defines the uniform search capability every backend
// implements, and the registration shape the fan-out runner consumes.
package provider

import (
	"context"

	"github.com/serverscout/serverscout/internal/domain/query"
	"github.com/serverscout/serverscout/internal/domain/record"
)

// Provider is a search backend. Implementations may fail by returning an
// error; the fan-out runner isolates failures and substitutes an empty
// batch, so a provider never needs to degrade internally.
type Provider interface {
	Search(ctx context.Context, q query.Query) ([]record.Record, error)
}

// Registration pairs a provider with its explicit name tag. The tag is
// supplied at registration time; nothing downstream inspects the
// implementation type.
type Registration struct {
	Name string
	Impl Provider
}

// Func adapts a plain function to the Provider interface.
type Func func(ctx context.Context, q query.Query) ([]record.Record, error)

// Search implements Provider.
func (f Func) Search(ctx context.Context, q query.Query) ([]record.Record, error) {
	return f(ctx, q)
}
