// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"
)

// Address is a saved delivery address in a user's address book. Accounts
// themselves live in the identity provider; only the id is stored here.
type Address struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Label        string    `gorm:"size:50" json:"label"` // home, work
	FullName     string    `gorm:"size:200;not null" json:"full_name"`
	Phone        string    `gorm:"size:20;not null" json:"phone"`
	AddressLine1 string    `gorm:"size:255;not null" json:"address_line1"`
	AddressLine2 string    `gorm:"size:255" json:"address_line2"`
	City         string    `gorm:"size:100;not null" json:"city"`
	State        string    `gorm:"size:100" json:"state"`
	PostalCode   string    `gorm:"size:20" json:"postal_code"`
	Country      string    `gorm:"size:2;not null;default:'IN'" json:"country"` // ISO 2-letter code
	IsDefault    bool      `gorm:"default:false" json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the table name for Address
func (Address) TableName() string {
	return "addresses"
}

// GetSingleLine returns the address formatted on one line
func (a *Address) GetSingleLine() string {
	parts := []string{a.AddressLine1, a.AddressLine2, a.City, a.State, a.PostalCode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
