package interfaces

import "context"

// MemberAuthorizer answers whether a user may operate on a group account.
// Membership is owned by the surrounding application; the ledger core only
// consumes the answer at its boundary.
type MemberAuthorizer interface {
	IsMember(ctx context.Context, accountID, userID string) (bool, error)
}
