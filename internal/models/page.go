package models

// Page selects a slice of a transaction history. Token is opaque to callers:
// pass "" for the first page, then the NextToken returned alongside each
// page until it comes back empty.
type Page struct {
	Token string
	Limit int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps Limit into [1, MaxPageLimit], defaulting when unset.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}
