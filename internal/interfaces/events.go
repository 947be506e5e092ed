package interfaces

import "context"

// EventPublisher pushes domain events to interested consumers. Failures are
// the publisher's caller's problem to log; the ledger never blocks on them.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}
