package adapter

import (
	"context"

	"iptv-subscription-platform/internal/domain/model"
)

// ProvisionResult carries the credentials extracted from the panel response.
// ServerURL is host:port parsed out of whichever URL field the panel returned.
type ProvisionResult struct {
	UpstreamID string
	Username   string
	Password   string
	M3UURL     string
	ServerURL  string
}

// Provisioner is the hex port for the upstream IPTV panel. Implementations
// classify failures: a structured rejection from the panel surfaces as
// domain.ErrProvisioningRejected (terminal), a timeout or connection error as
// domain.ErrProvisioningTransport (retryable).
type Provisioner interface {
	// CreateAccount creates a fresh line for the plan's package and duration.
	CreateAccount(ctx context.Context, plan *model.Plan, note string) (*ProvisionResult, error)
	// ExtendAccount extends an existing line by the plan duration.
	ExtendAccount(ctx context.Context, username string, plan *model.Plan) (*ProvisionResult, error)
	// SuspendAccount disables the line upstream.
	SuspendAccount(ctx context.Context, username string) error
}
