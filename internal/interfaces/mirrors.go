package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jointly-dev/jointly/internal/models"
)

// MirrorGateway fronts the externally-owned bank account a transfer
// counterparts against. Lookups and updates are best effort: a missing
// account or a failed delta is logged by the caller and never fails the
// transfer that triggered it.
type MirrorGateway interface {
	FindByAccountNumber(ctx context.Context, accountNumber string) (models.MirrorAccount, error)
	ApplyDelta(ctx context.Context, accountNumber string, delta decimal.Decimal) error
}

// LinkedMirrorGateway fronts the optional user-facing copy of a mirror
// account. Absence is normal, not an error.
type LinkedMirrorGateway interface {
	FindByAccountNumber(ctx context.Context, accountNumber string) (models.LinkedMirror, error)
	ApplyDelta(ctx context.Context, accountNumber string, delta decimal.Decimal) error
}
