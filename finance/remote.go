package finance

import "context"

// RemoteSource is the remote data collaborator consumed by the resource
// store. Reads return the full current value for an owner; writes either
// fully succeed or return an error. Transport concerns (timeouts, retries)
// belong to the implementation.
type RemoteSource interface {
	Transactions(ctx context.Context, ownerID string) ([]Transaction, error)
	Summary(ctx context.Context, ownerID string) ([]SummaryCard, error)
	MonthlySummaries(ctx context.Context, ownerID string) ([]MonthlySummary, error)
	Profile(ctx context.Context, ownerID string) (*UserProfile, error)

	// TransactionByID returns nil without error when no transaction exists
	// under id.
	TransactionByID(ctx context.Context, id string) (*Transaction, error)

	CreateTransaction(ctx context.Context, ownerID string, input TransactionInput) (*Transaction, error)
	DeleteAllTransactions(ctx context.Context, ownerID string) error
}
