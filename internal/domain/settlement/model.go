package settlement

import "context"

// Status is the payout/settlement state of one identity for a season, owned
// by the settlement collaborator. The engine only annotates and filters on
// it; an unknown status never fails a standings read.
type Status string

const (
	StatusPaid    Status = "PAID"
	StatusPending Status = "PENDING"
	StatusUnpaid  Status = "UNPAID"
	StatusUnknown Status = "UNKNOWN"
)

// Provider fetches settlement statuses keyed by identity.
type Provider interface {
	StatusesBySeason(ctx context.Context, season int) (map[string]Status, error)
}
