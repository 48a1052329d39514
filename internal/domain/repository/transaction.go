package repository

import "context"

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on a specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs fn within a transaction. An error from fn rolls it back,
	// otherwise it is committed.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory hands out repositories bound to the current transaction.
type RepositoryFactory interface {
	NewUserRepository() UserRepository
	NewSessionRepository() SessionRepository
}
