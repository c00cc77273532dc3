package models

import (
	"strings"

	"gorm.io/gorm"
)

// Identity sources. Both collapse into the same normalized Identity, so the
// checkout flow never needs to know which one authenticated the customer.
const (
	SourcePassword = "password"
	SourceOAuth    = "oauth"
)

// User represents a customer with a password-based account.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Name       string `json:"name" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Identity is the normalized customer identity consumed by the cart and
// checkout flows, regardless of which authentication source produced it.
type Identity struct {
	Source string `json:"source"`
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Complete reports whether the identity is usable for placing an order.
// An authenticated-but-malformed identity (blank id or email) is treated as
// a fatal local error rather than being sent to the order service.
func (i Identity) Complete() bool {
	return strings.TrimSpace(i.ID) != "" && strings.TrimSpace(i.Email) != ""
}
