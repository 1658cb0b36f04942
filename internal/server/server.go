package server

import "context"

// Server is a long-running listener driven by the fx lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Addr() string
}
