package services

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores for missing, expired, or
// already-consumed entries. It is a normal outcome, not a fault.
var ErrNotFound = errors.New("not found")

// CommitmentStore holds pending server seeds keyed by their SHA-256
// commitment. Consume must be atomic: two racing calls on the same hash
// yield exactly one secret and one ErrNotFound.
type CommitmentStore interface {
	Issue(ctx context.Context) (commitmentHash string, err error)
	Consume(ctx context.Context, commitmentHash string) (secret string, err error)
}

// SpentTicketRegistry remembers settled tickets for at least the ticket
// TTL so a bearer token cannot be redeemed or escalated twice within
// its validity window. MarkSpent reports false if the id was already
// present.
type SpentTicketRegistry interface {
	MarkSpent(ctx context.Context, ticketID string) (bool, error)
}
