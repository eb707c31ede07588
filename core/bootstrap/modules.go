package bootstrap

import "context"

// Seeder loads initial data into storage once infrastructure is up.
type Seeder interface {
	Seed(ctx context.Context) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context) error {
	return f(ctx)
}
