package repositories

import "bakeshop/internal/models"

// UserRepository stores password-account customers. OAuth identities never
// land here; they reach the cart and checkout flows as headers only.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	// GetByID backs the account endpoint's identity refresh.
	GetByID(id string) (*models.User, error)
}
