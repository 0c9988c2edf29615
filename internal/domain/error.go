package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Payment gateway errors
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrGatewayRequestFail  = errors.New("payment gateway request failed")
	ErrUnknownGateway      = errors.New("unknown payment gateway")
	ErrReferenceNotFound   = errors.New("payment reference not found")
	ErrVerificationUnavail = errors.New("payment verification unavailable")

	// Webhook boundary errors
	ErrInvalidWebhookSignature  = errors.New("invalid webhook signature")
	ErrWebhookAuthNotConfigured = errors.New("webhook secret not configured")

	// Record state errors
	ErrAlreadyFinalized = errors.New("record already in terminal state")

	// Provisioning errors. Rejected is terminal (bad plan mapping,
	// insufficient panel credits); Transport is retryable.
	ErrProvisioningRejected  = errors.New("provisioning rejected by panel")
	ErrProvisioningTransport = errors.New("provisioning transport failure")
)

// IsRetryable reports whether an error should be handed back to the task
// queue for another attempt rather than recorded as terminal.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProvisioningTransport)
}
